package main

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

type fakeCards struct {
	cards    map[string]domain.Card
	order    []string
	recorded map[string]bool
	deleted  []string
}

func newFakeCards(cards ...domain.Card) *fakeCards {
	f := &fakeCards{cards: map[string]domain.Card{}, recorded: map[string]bool{}}
	for _, c := range cards {
		f.cards[c.ID] = c
		f.order = append(f.order, c.ID)
	}
	return f
}

func (f *fakeCards) List(_ context.Context, _ bool) ([]domain.Card, error) {
	var out []domain.Card
	for _, id := range f.order {
		if c, ok := f.cards[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// SaveSchedule records a grade as correct when the card moved past level
// new.
func (f *fakeCards) SaveSchedule(_ context.Context, card domain.Card) (*domain.Card, error) {
	if card.DueAt == nil {
		return nil, fmt.Errorf("%w: no due date", domain.ErrInvalidArgument)
	}
	f.cards[card.ID] = card
	f.recorded[card.ID] = card.Proficiency != domain.LevelNew
	return &card, nil
}

func (f *fakeCards) Edit(_ context.Context, id, question, answer string) (*domain.Card, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("%w: empty", domain.ErrInvalidArgument)
	}
	c := f.cards[id]
	c.Question, c.Answer = question, answer
	f.cards[id] = c
	return &c, nil
}

func (f *fakeCards) Delete(_ context.Context, id string) error {
	delete(f.cards, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestRunReviewSingleCard(t *testing.T) {
	later := time.Now().Add(48 * time.Hour)
	due := domain.Card{ID: "a", Question: "Wann fiel Rom?", Answer: "476"}
	notDue := domain.Card{ID: "b", Question: "Nicht fällig", Answer: "-", DueAt: &later}

	tests := []struct {
		name    string
		input   string
		correct *bool
		deleted bool
	}{
		{"correct", "\ny\n", ptr(true), false},
		{"wrong after invalid input", "\nx\nn\n", ptr(false), false},
		{"delete", "\nd\n", nil, true},
		{"quit", "\nq\n", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeCards(due, notDue)
			var out bytes.Buffer
			if err := runReview(context.Background(), strings.NewReader(tt.input), &out, svc, rand.New(rand.NewPCG(1, 2))); err != nil {
				t.Fatalf("runReview() error = %v", err)
			}

			got, ok := svc.recorded["a"]
			if tt.correct == nil && ok {
				t.Errorf("card was graded, want no grade")
			}
			if tt.correct != nil && (!ok || got != *tt.correct) {
				t.Errorf("recorded = %v (present %v), want %v", got, ok, *tt.correct)
			}
			if _, graded := svc.recorded["b"]; graded {
				t.Errorf("card that is not due was reviewed")
			}
			if tt.deleted != (len(svc.deleted) == 1) {
				t.Errorf("deleted = %v, want deleted %v", svc.deleted, tt.deleted)
			}
			if !strings.Contains(out.String(), "Q: Wann fiel Rom?") {
				t.Errorf("output does not show the question:\n%s", out.String())
			}
		})
	}
}

func TestRunReviewAllCards(t *testing.T) {
	svc := newFakeCards(
		domain.Card{ID: "a", Question: "Q1", Answer: "A1"},
		domain.Card{ID: "b", Question: "Q2", Answer: "A2"},
		domain.Card{ID: "c", Question: "Q3", Answer: "A3"},
	)
	var out bytes.Buffer
	input := strings.Repeat("\ny\n", 3)
	if err := runReview(context.Background(), strings.NewReader(input), &out, svc, rand.New(rand.NewPCG(7, 7))); err != nil {
		t.Fatalf("runReview() error = %v", err)
	}
	if len(svc.recorded) != 3 {
		t.Errorf("recorded %d cards, want 3", len(svc.recorded))
	}
	minDue := time.Now().AddDate(0, 0, 2)
	for id, c := range svc.cards {
		if c.Proficiency != domain.LevelOne {
			t.Errorf("card %s level = %s, want one", id, c.Proficiency)
		}
		if c.DueAt == nil || c.DueAt.Before(minDue) {
			t.Errorf("card %s due at %v, want three days from now", id, c.DueAt)
		}
	}
	if !strings.Contains(out.String(), "All due cards reviewed.") {
		t.Errorf("missing completion message:\n%s", out.String())
	}
}

func TestRunReviewEdit(t *testing.T) {
	svc := newFakeCards(domain.Card{ID: "a", Question: "Alt", Answer: "Antwort"})
	var out bytes.Buffer
	// reveal, edit with a new question and the old answer, then grade
	input := "\ne\nNeu\n\ny\n"
	if err := runReview(context.Background(), strings.NewReader(input), &out, svc, nil); err != nil {
		t.Fatalf("runReview() error = %v", err)
	}
	if got := svc.cards["a"]; got.Question != "Neu" || got.Answer != "Antwort" {
		t.Errorf("edited card = %+v", got)
	}
	if !svc.recorded["a"] {
		t.Errorf("edited card was not graded correct")
	}
}

func TestRunReviewNothingDue(t *testing.T) {
	later := time.Now().Add(time.Hour)
	svc := newFakeCards(domain.Card{ID: "a", Question: "Q", Answer: "A", DueAt: &later})
	var out bytes.Buffer
	if err := runReview(context.Background(), strings.NewReader(""), &out, svc, nil); err != nil {
		t.Fatalf("runReview() error = %v", err)
	}
	if !strings.Contains(out.String(), "No cards due.") {
		t.Errorf("output = %q", out.String())
	}
}

func ptr[T any](v T) *T { return &v }
