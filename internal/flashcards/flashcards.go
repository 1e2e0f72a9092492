// Package flashcards lists, reviews, edits and generates flashcards.
package flashcards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/cardgen"
	"github.com/conorfennell/zeitstrahl/internal/cardhash"
	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/logger"
	"github.com/conorfennell/zeitstrahl/internal/review"
	"github.com/conorfennell/zeitstrahl/internal/storage"
)

// Subject types cards can be generated for.
const (
	SubjectPerson = "person"
	SubjectEvent  = "event"
)

// Service implements the flashcard operations on top of the store.
type Service struct {
	db        *storage.DB
	log       *logger.Logger
	generator cardgen.Generator
	language  string
	now       func() time.Time
}

// NewService returns a Service generating cards in language.
func NewService(db *storage.DB, log *logger.Logger, generator cardgen.Generator, language string) *Service {
	return &Service{db: db, log: log, generator: generator, language: language, now: time.Now}
}

// List returns all cards, or only the due ones when dueOnly is set.
func (s *Service) List(ctx context.Context, dueOnly bool) ([]domain.Card, error) {
	cards, err := s.db.ListCards(ctx)
	if err != nil {
		return nil, err
	}
	if dueOnly {
		cards = review.DueSet(cards, s.now())
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

// Get returns one card.
func (s *Service) Get(ctx context.Context, id string) (*domain.Card, error) {
	return s.db.GetCard(ctx, id)
}

// Review records an answer and stores the card's next level and due date.
func (s *Service) Review(ctx context.Context, id string, correct bool) (*domain.Card, error) {
	card, err := s.db.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SaveSchedule(ctx, review.Apply(*card, correct, s.now()))
}

// SaveSchedule stores the level and due date of a card that has already
// been scheduled, for example by a review.Session. The card is not re-read.
func (s *Service) SaveSchedule(ctx context.Context, card domain.Card) (*domain.Card, error) {
	if card.DueAt == nil {
		return nil, fmt.Errorf("%w: card %s has no due date", domain.ErrInvalidArgument, card.ID)
	}
	if err := s.db.UpdateCardSchedule(ctx, card.ID, card.Proficiency, *card.DueAt); err != nil {
		return nil, err
	}
	s.log.Debug("Card reviewed",
		"card_id", card.ID,
		"status", card.Proficiency.String(),
		"due_at", card.DueAt,
	)
	return &card, nil
}

// Edit replaces the question and answer of a card. Both must be non-blank.
// Cards imported from a source keep their hash, so the next sync still
// matches them to their source entry and the edit and review state survive.
func (s *Service) Edit(ctx context.Context, id, question, answer string) (*domain.Card, error) {
	question, answer = strings.TrimSpace(question), strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, fmt.Errorf("%w: question and answer must not be empty", domain.ErrInvalidArgument)
	}

	card, err := s.db.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	card.Question, card.Answer = question, answer
	if card.SourceID == nil {
		card.Hash = cardhash.Hash(card.Draft())
	}
	if err := s.db.UpdateCardContent(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// Delete removes a card.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.db.DeleteCard(ctx, id)
}

// GenerateResult lists the cards stored by a generation run.
type GenerateResult struct {
	Created int      `json:"created"`
	IDs     []string `json:"ids"`
}

// Generate creates cards for a person or an event. Drafts with a blank
// question or answer, and drafts identical to an existing card, are
// dropped. New cards start at level new and are due immediately.
func (s *Service) Generate(ctx context.Context, subject, id string) (*GenerateResult, error) {
	var (
		prompt string
		link   func(*domain.Card)
	)
	switch subject {
	case SubjectPerson:
		p, err := s.db.GetPerson(ctx, id)
		if err != nil {
			return nil, err
		}
		achievements, err := s.db.Children(storage.Achievements).List(ctx, id)
		if err != nil {
			return nil, err
		}
		prompt = cardgen.PersonPrompt(*p, achievements, s.language)
		link = func(c *domain.Card) { c.PersonID = &p.ID }
	case SubjectEvent:
		e, err := s.db.GetEvent(ctx, id)
		if err != nil {
			return nil, err
		}
		subEvents, err := s.db.Children(storage.SubEvents).List(ctx, id)
		if err != nil {
			return nil, err
		}
		prompt = cardgen.EventPrompt(*e, subEvents, s.language)
		link = func(c *domain.Card) { c.EventID = &e.ID }
	default:
		return nil, fmt.Errorf("%w: unknown subject type %q", domain.ErrInvalidArgument, subject)
	}

	drafts, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.log.Error("Card generation failed", "subject", subject, "id", id, "error", err)
		if !errors.Is(err, cardgen.ErrGeneration) {
			err = fmt.Errorf("%w: %w", cardgen.ErrGeneration, err)
		}
		return nil, err
	}

	due := s.now().UTC()
	result := &GenerateResult{IDs: []string{}}
	err = s.db.InTx(ctx, func(q *storage.Queries) error {
		for _, d := range drafts {
			d.Question, d.Answer = strings.TrimSpace(d.Question), strings.TrimSpace(d.Answer)
			if d.Question == "" || d.Answer == "" {
				continue
			}
			card := &domain.Card{
				Question:    d.Question,
				Answer:      d.Answer,
				Context:     d.Context,
				Hash:        cardhash.Hash(d),
				Proficiency: domain.LevelNew,
				DueAt:       &due,
			}
			link(card)
			inserted, err := q.InsertCard(ctx, card)
			if err != nil {
				return err
			}
			if inserted {
				result.IDs = append(result.IDs, card.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Created = len(result.IDs)

	s.log.Info("Cards generated", "subject", subject, "id", id, "drafts", len(drafts), "created", result.Created)
	return result, nil
}
