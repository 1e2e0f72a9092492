package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// memStore keeps children in insertion order and logs every write.
type memStore struct {
	rows   []domain.ChildRecord
	nextID int
	calls  []string
	failOn string
}

func newMemStore(parentID string, titles ...string) *memStore {
	s := &memStore{}
	for _, title := range titles {
		s.nextID++
		s.rows = append(s.rows, domain.ChildRecord{ID: fmt.Sprintf("r%d", s.nextID), ParentID: parentID, Title: title})
	}
	return s
}

func (s *memStore) List(_ context.Context, parentID string) ([]domain.ChildRecord, error) {
	var out []domain.ChildRecord
	for _, r := range s.rows {
		if r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, parentID string, c domain.ChildContent) (domain.ChildRecord, error) {
	call := "create " + c.Title
	if call == s.failOn {
		return domain.ChildRecord{}, errors.New("disk full")
	}
	s.calls = append(s.calls, call)
	s.nextID++
	rec := domain.ChildRecord{ID: fmt.Sprintf("r%d", s.nextID), ParentID: parentID, Title: c.Title, Description: c.Description, Year: c.Year}
	s.rows = append(s.rows, rec)
	return rec, nil
}

func (s *memStore) Update(_ context.Context, id, parentID string, c domain.ChildContent) (domain.ChildRecord, error) {
	call := "update " + id + " " + c.Title
	if call == s.failOn {
		return domain.ChildRecord{}, errors.New("disk full")
	}
	s.calls = append(s.calls, call)
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i] = domain.ChildRecord{ID: id, ParentID: parentID, Title: c.Title, Description: c.Description, Year: c.Year}
			return s.rows[i], nil
		}
	}
	return domain.ChildRecord{}, domain.ErrNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	call := "delete " + id
	if call == s.failOn {
		return errors.New("disk full")
	}
	s.calls = append(s.calls, call)
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func items(titles ...string) []domain.ChildContent {
	out := make([]domain.ChildContent, len(titles))
	for i, title := range titles {
		out[i] = domain.ChildContent{Title: title}
	}
	return out
}

func titlesOf(recs []domain.ChildRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustNew(t *testing.T, strategy Strategy) *Reconciler {
	t.Helper()
	r, err := New(strategy)
	if err != nil {
		t.Fatalf("New(%q): %v", strategy, err)
	}
	return r
}

func TestPositionalReplacesShorterList(t *testing.T) {
	store := newMemStore("e1", "Alt1", "Alt2", "Alt3")
	r := mustNew(t, Positional)

	res, err := r.Reconcile(context.Background(), store, "e1", items("Neu1", "Neu2"))
	if err != nil {
		t.Fatalf("Reconcile returned an unexpected error: %v", err)
	}

	wantCalls := []string{"update r1 Neu1", "update r2 Neu2", "delete r3"}
	if !equalStrings(store.calls, wantCalls) {
		t.Errorf("Expected calls %v, but got %v", wantCalls, store.calls)
	}
	if got := titlesOf(res.Records); !equalStrings(got, []string{"Neu1", "Neu2"}) {
		t.Errorf("Expected final list [Neu1 Neu2], but got %v", got)
	}
	if res.Count(Update) != 2 || res.Count(Delete) != 1 {
		t.Errorf("Expected 2 updates and 1 delete, but got %d and %d", res.Count(Update), res.Count(Delete))
	}
}

func TestPositionalGrowth(t *testing.T) {
	store := newMemStore("p1", "X", "Y")
	r := mustNew(t, Positional)

	res, err := r.Reconcile(context.Background(), store, "p1", items("A", "B", "C", "D"))
	if err != nil {
		t.Fatalf("Reconcile returned an unexpected error: %v", err)
	}
	wantCalls := []string{"update r1 A", "update r2 B", "create C", "create D"}
	if !equalStrings(store.calls, wantCalls) {
		t.Errorf("Expected calls %v, but got %v", wantCalls, store.calls)
	}
	if len(res.Records) != 4 {
		t.Errorf("Expected 4 stored children, but got %d", len(res.Records))
	}
	if res.Count(Create) != 2 {
		t.Errorf("Expected 2 creates, but got %d", res.Count(Create))
	}
}

func TestPositionalShrinkToEmpty(t *testing.T) {
	store := newMemStore("p1", "X", "Y")
	r := mustNew(t, Positional)

	res, err := r.Reconcile(context.Background(), store, "p1", nil)
	if err != nil {
		t.Fatalf("Reconcile returned an unexpected error: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("Expected no children, but got %v", titlesOf(res.Records))
	}
	if res.Count(Delete) != 2 {
		t.Errorf("Expected 2 deletes, but got %d", res.Count(Delete))
	}
}

func TestPositionalBlankRows(t *testing.T) {
	testCases := []struct {
		name      string
		existing  []string
		submitted []string
		wantCalls []string
		wantFinal []string
	}{
		{
			name:      "blank in the middle leaves its stored row untouched",
			existing:  []string{"X", "Y"},
			submitted: []string{"A", "  ", "B"},
			wantCalls: []string{"update r1 A", "create B"},
			wantFinal: []string{"A", "Y", "B"},
		},
		{
			name:      "blank beyond the stored rows creates nothing",
			existing:  []string{"X"},
			submitted: []string{"A", ""},
			wantCalls: []string{"update r1 A"},
			wantFinal: []string{"A"},
		},
		{
			name:      "blank rows still count towards the submitted length",
			existing:  []string{"X", "Y", "Z"},
			submitted: []string{"", ""},
			wantCalls: []string{"delete r3"},
			wantFinal: []string{"X", "Y"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore("p1", tc.existing...)
			r := mustNew(t, Positional)

			res, err := r.Reconcile(context.Background(), store, "p1", items(tc.submitted...))
			if err != nil {
				t.Fatalf("Reconcile returned an unexpected error: %v", err)
			}
			if !equalStrings(store.calls, tc.wantCalls) {
				t.Errorf("Expected calls %v, but got %v", tc.wantCalls, store.calls)
			}
			if got := titlesOf(res.Records); !equalStrings(got, tc.wantFinal) {
				t.Errorf("Expected final list %v, but got %v", tc.wantFinal, got)
			}
		})
	}
}

func TestTitlesAreTrimmed(t *testing.T) {
	store := newMemStore("p1")
	r := mustNew(t, Positional)

	res, err := r.Reconcile(context.Background(), store, "p1", items("  Caesar crosses the Rubicon "))
	if err != nil {
		t.Fatalf("Reconcile returned an unexpected error: %v", err)
	}
	if res.Records[0].Title != "Caesar crosses the Rubicon" {
		t.Errorf("Expected a trimmed title, but got %q", res.Records[0].Title)
	}
}

func TestFailureReportsCompletedOps(t *testing.T) {
	store := newMemStore("p1", "X", "Y", "Z")
	store.failOn = "update r2 B"
	r := mustNew(t, Positional)

	_, err := r.Reconcile(context.Background(), store, "p1", items("A", "B"))
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected a *reconcile.Error, but got %v", err)
	}
	if rerr.Op.Kind != Update || rerr.Op.Index != 1 || rerr.Op.ID != "r2" {
		t.Errorf("Expected the failing op to be update at index 1 (r2), but got %+v", rerr.Op)
	}
	if len(rerr.Completed) != 1 || rerr.Completed[0].ID != "r1" {
		t.Errorf("Expected one completed update of r1, but got %+v", rerr.Completed)
	}
	for _, call := range store.calls {
		if call == "delete r3" {
			t.Error("Expected no delete to run after a failed update")
		}
	}
}

func TestIdentityStrategy(t *testing.T) {
	store := newMemStore("p1", "X", "Y", "Z")
	r := mustNew(t, Identity)

	submitted := []domain.ChildContent{
		{ID: "r3", Title: "Z2"},
		{Title: "New"},
		{ID: "r1", Title: " "},
	}
	res, err := r.Reconcile(context.Background(), store, "p1", submitted)
	if err != nil {
		t.Fatalf("Reconcile returned an unexpected error: %v", err)
	}

	wantCalls := []string{"update r3 Z2", "create New", "delete r2"}
	if !equalStrings(store.calls, wantCalls) {
		t.Errorf("Expected calls %v, but got %v", wantCalls, store.calls)
	}
	if got := titlesOf(res.Records); !equalStrings(got, []string{"X", "Z2", "New"}) {
		t.Errorf("Expected final list [X Z2 New], but got %v", got)
	}
}

func TestIdentityRejectsForeignID(t *testing.T) {
	store := newMemStore("p1", "X")
	r := mustNew(t, Identity)

	_, err := r.Reconcile(context.Background(), store, "p1", []domain.ChildContent{{ID: "other", Title: "A"}})
	if !errors.Is(err, ErrUnknownChild) {
		t.Fatalf("Expected ErrUnknownChild, but got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("Expected no writes, but got %v", store.calls)
	}
}

func TestNewRejectsUnknownStrategy(t *testing.T) {
	if _, err := New("random"); err == nil {
		t.Error("Expected an error for an unknown strategy")
	}
	r := mustNew(t, "")
	if r.Strategy() != Positional {
		t.Errorf("Expected the default strategy to be positional, but got %s", r.Strategy())
	}
}

func TestSerializeIsPerParent(t *testing.T) {
	r := mustNew(t, Positional)

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Serialize("same", func() error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Errorf("Expected at most one reconcile per parent at a time, but saw %d", peak)
	}

	// Different parents must not block each other.
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = r.Serialize("a", func() error {
			<-release
			return nil
		})
	}()
	go func() {
		_ = r.Serialize("b", func() error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Expected parent b to proceed while parent a is locked")
	}
	close(release)

	r.locks.mu.Lock()
	remaining := len(r.locks.locks)
	r.locks.mu.Unlock()
	if remaining > 1 {
		t.Errorf("Expected idle locks to be released, but %d remain", remaining)
	}
}
