package flashcards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/cardgen"
	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/logger"
	"github.com/conorfennell/zeitstrahl/internal/storage"
)

type fakeGenerator struct {
	drafts []domain.CardDraft
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) ([]domain.CardDraft, error) {
	f.prompt = prompt
	return f.drafts, f.err
}

func newService(t *testing.T, gen cardgen.Generator) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := NewService(db, logger.NewNop(), gen, "Deutsch")
	s.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return s, db
}

func seedPerson(t *testing.T, db *storage.DB) *domain.Person {
	t.Helper()
	ctx := context.Background()
	era := &domain.Era{Name: "Neuzeit", StartYear: 1500, EndYear: 2100}
	if err := db.InsertEra(ctx, era); err != nil {
		t.Fatal(err)
	}
	p := &domain.Person{EraID: era.ID, Name: "Ada Lovelace", Born: 1815}
	if err := db.InsertPerson(ctx, p); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Children(storage.Achievements).Create(ctx, p.ID, domain.ChildContent{Title: "Erstes Programm"}); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGenerateForPerson(t *testing.T) {
	gen := &fakeGenerator{drafts: []domain.CardDraft{
		{Question: "Wer war Ada Lovelace?", Answer: "Mathematikerin"},
		{Question: "  ", Answer: "blank question"},
		{Question: "Was schrieb sie?", Answer: ""},
		{Question: "Wer war Ada Lovelace?", Answer: "Mathematikerin"},
		{Question: "Für welche Maschine?", Answer: "Analytical Engine"},
	}}
	s, db := newService(t, gen)
	ctx := context.Background()
	p := seedPerson(t, db)

	res, err := s.Generate(ctx, SubjectPerson, p.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Created != 2 || len(res.IDs) != 2 {
		t.Fatalf("Generate() = %+v, want 2 created", res)
	}

	card, err := db.GetCard(ctx, res.IDs[0])
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if card.Proficiency != domain.LevelNew {
		t.Errorf("status = %v, want new", card.Proficiency)
	}
	if card.DueAt == nil || !card.DueAt.Equal(s.now()) {
		t.Errorf("due_at = %v, want now", card.DueAt)
	}
	if card.PersonID == nil || *card.PersonID != p.ID {
		t.Errorf("person_id = %v, want %s", card.PersonID, p.ID)
	}
	if gen.prompt == "" {
		t.Error("generator received no prompt")
	}
}

func TestGenerateFailures(t *testing.T) {
	s, db := newService(t, &fakeGenerator{err: errors.New("upstream down")})
	ctx := context.Background()
	p := seedPerson(t, db)

	if _, err := s.Generate(ctx, SubjectPerson, p.ID); !errors.Is(err, cardgen.ErrGeneration) {
		t.Errorf("Generate() error = %v, want ErrGeneration", err)
	}
	if _, err := s.Generate(ctx, SubjectEvent, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Generate(missing event) error = %v, want ErrNotFound", err)
	}
	if _, err := s.Generate(ctx, "place", p.ID); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Generate(place) error = %v, want ErrInvalidArgument", err)
	}
}

func TestReviewAndDueList(t *testing.T) {
	s, db := newService(t, &fakeGenerator{})
	ctx := context.Background()

	card := &domain.Card{Question: "Q", Answer: "A", Hash: "h"}
	if _, err := db.InsertCard(ctx, card); err != nil {
		t.Fatal(err)
	}

	due, err := s.List(ctx, true)
	if err != nil || len(due) != 1 {
		t.Fatalf("List(due) = %d cards, %v; want 1", len(due), err)
	}

	got, err := s.Review(ctx, card.ID, true)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if got.Proficiency != domain.LevelOne {
		t.Errorf("status = %v, want one", got.Proficiency)
	}
	if want := s.now().AddDate(0, 0, 3); !got.DueAt.Equal(want) {
		t.Errorf("due_at = %v, want %v", got.DueAt, want)
	}

	due, err = s.List(ctx, true)
	if err != nil || len(due) != 0 {
		t.Errorf("List(due) after review = %d cards, %v; want 0", len(due), err)
	}
	all, err := s.List(ctx, false)
	if err != nil || len(all) != 1 {
		t.Errorf("List(all) = %d cards, %v; want 1", len(all), err)
	}

	got, err = s.Review(ctx, card.ID, false)
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if got.Proficiency != domain.LevelNew {
		t.Errorf("status after wrong answer = %v, want new", got.Proficiency)
	}
}

func TestEdit(t *testing.T) {
	s, db := newService(t, &fakeGenerator{})
	ctx := context.Background()

	card := &domain.Card{Question: "Q", Answer: "A", Hash: "h"}
	if _, err := db.InsertCard(ctx, card); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Edit(ctx, card.ID, " ", "A"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Edit(blank) error = %v, want ErrInvalidArgument", err)
	}
	edited, err := s.Edit(ctx, card.ID, " Neue Frage ", "Neue Antwort")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if edited.Question != "Neue Frage" || edited.Hash == "h" {
		t.Errorf("Edit() = %+v, want trimmed question and a new hash", edited)
	}
	if _, err := s.Edit(ctx, "missing", "q", "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Edit(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, card.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, card.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestEditKeepsHashOfImportedCard(t *testing.T) {
	s, db := newService(t, &fakeGenerator{})
	ctx := context.Background()

	srcID, err := db.InsertSource(ctx, "/notes", storage.SourceLocal)
	if err != nil {
		t.Fatal(err)
	}
	card := &domain.Card{Question: "Q", Answer: "A", Hash: "from-source", SourceID: &srcID}
	if _, err := db.InsertCard(ctx, card); err != nil {
		t.Fatal(err)
	}

	edited, err := s.Edit(ctx, card.ID, "Q", "Neue Antwort")
	if err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	stored, err := db.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if edited.Hash != "from-source" || stored.Hash != "from-source" || stored.Answer != "Neue Antwort" {
		t.Errorf("stored card = %+v, want the new answer under the source hash", stored)
	}
}

func TestSaveSchedule(t *testing.T) {
	s, db := newService(t, &fakeGenerator{})
	ctx := context.Background()
	card := &domain.Card{Question: "Q", Answer: "A", Hash: "h"}
	if _, err := db.InsertCard(ctx, card); err != nil {
		t.Fatal(err)
	}

	if _, err := s.SaveSchedule(ctx, *card); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("SaveSchedule(no due date) error = %v, want ErrInvalidArgument", err)
	}

	due := time.Date(2024, 6, 8, 10, 0, 0, 0, time.UTC)
	card.Proficiency, card.DueAt = domain.LevelTwo, &due
	if _, err := s.SaveSchedule(ctx, *card); err != nil {
		t.Fatalf("SaveSchedule() error = %v", err)
	}
	stored, err := db.GetCard(ctx, card.ID)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if stored.Proficiency != domain.LevelTwo || stored.DueAt == nil || !stored.DueAt.Equal(due) {
		t.Errorf("stored schedule = %v %v, want two at %v", stored.Proficiency, stored.DueAt, due)
	}
}
