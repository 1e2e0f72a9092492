package domain

import "time"

// CardDraft is a question-answer-context entry that has not been stored yet.
// Parsed source files and the card generator both produce drafts.
type CardDraft struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context,omitempty"`
}

// Card is a stored flashcard together with its review state.
type Card struct {
	ID          string     `db:"id" json:"id"`
	Question    string     `db:"question" json:"question"`
	Answer      string     `db:"answer" json:"answer"`
	Context     string     `db:"context" json:"context,omitempty"`
	Hash        string     `db:"hash" json:"-"`
	Proficiency Level      `db:"status" json:"status"`
	DueAt       *time.Time `db:"due_at" json:"due_at"`
	PersonID    *string    `db:"person_id" json:"person_id,omitempty"`
	EventID     *string    `db:"event_id" json:"event_id,omitempty"`
	SourceID    *int64     `db:"source_id" json:"source_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Draft returns the content part of the card.
func (c Card) Draft() CardDraft {
	return CardDraft{Question: c.Question, Answer: c.Answer, Context: c.Context}
}
