// Package reconcile synchronizes a stored, ordered list of child records
// (sub-events of an event, achievements of a person) with a submitted full
// replacement list.
//
// The default strategy correlates rows by list position: submitted row i
// updates stored row i, surplus submitted rows are created and surplus
// stored rows are deleted. Reordering, inserting or removing a row in the
// middle of the list therefore rewrites the rows after it; the store cannot
// tell such an edit apart from an in-place change. The identity strategy
// correlates rows by submitted id instead.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

// Store is the persistence collaborator for one child collection.
// List must return the children of parentID in their defined sort order.
type Store interface {
	List(ctx context.Context, parentID string) ([]domain.ChildRecord, error)
	Create(ctx context.Context, parentID string, content domain.ChildContent) (domain.ChildRecord, error)
	Update(ctx context.Context, id, parentID string, content domain.ChildContent) (domain.ChildRecord, error)
	Delete(ctx context.Context, id string) error
}

// Strategy selects how submitted rows are paired with stored rows.
type Strategy string

const (
	// Positional pairs rows by list index.
	Positional Strategy = "positional"
	// Identity pairs rows by the id carried on each submitted row.
	Identity Strategy = "identity"
)

// ErrUnknownChild is returned by the identity strategy when a submitted row
// names an id that does not belong to the parent.
var ErrUnknownChild = errors.New("reconcile: unknown child id")

// Kind is the action taken for one row.
type Kind int

const (
	Skip Kind = iota
	Update
	Create
	Delete
)

var kindNames = [...]string{Skip: "skip", Update: "update", Create: "create", Delete: "delete"}

func (k Kind) String() string {
	if k >= Skip && k <= Delete {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Op records one action. Index is the submitted index for skip, update and
// create, and the stored index for delete.
type Op struct {
	Index int    `json:"index"`
	Kind  Kind   `json:"kind"`
	ID    string `json:"id,omitempty"`
}

// Result is the outcome of a successful reconcile.
type Result struct {
	Ops     []Op
	Records []domain.ChildRecord
}

// Count returns the number of ops of the given kind.
func (r *Result) Count(kind Kind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Error reports the op that failed and the ops that completed before it.
type Error struct {
	Op        Op
	Completed []Op
	Err       error
}

func (e *Error) Error() string {
	if e.Op.ID != "" {
		return fmt.Sprintf("reconcile: %s at index %d (id %s): %v", e.Op.Kind, e.Op.Index, e.Op.ID, e.Err)
	}
	return fmt.Sprintf("reconcile: %s at index %d: %v", e.Op.Kind, e.Op.Index, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reconciler applies submitted child lists with a fixed strategy and
// serializes work per parent.
type Reconciler struct {
	strategy Strategy
	locks    *keyedMutex
}

// New returns a Reconciler. An empty strategy means Positional.
func New(strategy Strategy) (*Reconciler, error) {
	switch strategy {
	case "":
		strategy = Positional
	case Positional, Identity:
	default:
		return nil, fmt.Errorf("reconcile: unknown strategy %q", strategy)
	}
	return &Reconciler{strategy: strategy, locks: newKeyedMutex()}, nil
}

// Strategy returns the configured strategy.
func (r *Reconciler) Strategy() Strategy {
	return r.strategy
}

// Serialize runs fn while holding the lock for parentID. Reconciles of the
// same parent must run inside Serialize, together with the transaction that
// wraps them.
func (r *Reconciler) Serialize(parentID string, fn func() error) error {
	unlock := r.locks.lock(parentID)
	defer unlock()
	return fn()
}

// Reconcile makes the children of parentID match submitted and returns the
// final ordered list. Deletes run only after every update and create has
// succeeded. The first failing store call aborts the run with an *Error.
func (r *Reconciler) Reconcile(ctx context.Context, store Store, parentID string, submitted []domain.ChildContent) (*Result, error) {
	existing, err := store.List(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list children of %s: %w", parentID, err)
	}

	var ops []Op
	if r.strategy == Identity {
		ops, err = byIdentity(ctx, store, parentID, submitted, existing)
	} else {
		ops, err = byPosition(ctx, store, parentID, submitted, existing)
	}
	if err != nil {
		return nil, err
	}

	final, err := store.List(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: reload children of %s: %w", parentID, err)
	}
	return &Result{Ops: ops, Records: final}, nil
}

func byPosition(ctx context.Context, store Store, parentID string, submitted []domain.ChildContent, existing []domain.ChildRecord) ([]Op, error) {
	ops := make([]Op, 0, max(len(submitted), len(existing)))

	for i, item := range submitted {
		if item.Blank() {
			ops = append(ops, Op{Index: i, Kind: Skip})
			continue
		}
		content := item.Normalized()

		if i < len(existing) {
			op := Op{Index: i, Kind: Update, ID: existing[i].ID}
			if _, err := store.Update(ctx, existing[i].ID, parentID, content); err != nil {
				return nil, &Error{Op: op, Completed: ops, Err: err}
			}
			ops = append(ops, op)
			continue
		}

		rec, err := store.Create(ctx, parentID, content)
		if err != nil {
			return nil, &Error{Op: Op{Index: i, Kind: Create}, Completed: ops, Err: err}
		}
		ops = append(ops, Op{Index: i, Kind: Create, ID: rec.ID})
	}

	for i := len(submitted); i < len(existing); i++ {
		op := Op{Index: i, Kind: Delete, ID: existing[i].ID}
		if err := store.Delete(ctx, existing[i].ID); err != nil {
			return nil, &Error{Op: op, Completed: ops, Err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func byIdentity(ctx context.Context, store Store, parentID string, submitted []domain.ChildContent, existing []domain.ChildRecord) ([]Op, error) {
	known := make(map[string]bool, len(existing))
	for _, rec := range existing {
		known[rec.ID] = true
	}
	kept := make(map[string]bool, len(existing))
	ops := make([]Op, 0, max(len(submitted), len(existing)))

	for i, item := range submitted {
		if item.ID != "" && known[item.ID] {
			kept[item.ID] = true
		}
		if item.Blank() {
			ops = append(ops, Op{Index: i, Kind: Skip, ID: item.ID})
			continue
		}
		content := item.Normalized()

		if item.ID != "" {
			op := Op{Index: i, Kind: Update, ID: item.ID}
			if !known[item.ID] {
				return nil, &Error{Op: op, Completed: ops, Err: ErrUnknownChild}
			}
			if _, err := store.Update(ctx, item.ID, parentID, content); err != nil {
				return nil, &Error{Op: op, Completed: ops, Err: err}
			}
			ops = append(ops, op)
			continue
		}

		rec, err := store.Create(ctx, parentID, content)
		if err != nil {
			return nil, &Error{Op: Op{Index: i, Kind: Create}, Completed: ops, Err: err}
		}
		ops = append(ops, Op{Index: i, Kind: Create, ID: rec.ID})
	}

	for i, rec := range existing {
		if kept[rec.ID] {
			continue
		}
		op := Op{Index: i, Kind: Delete, ID: rec.ID}
		if err := store.Delete(ctx, rec.ID); err != nil {
			return nil, &Error{Op: op, Completed: ops, Err: err}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedLock)}
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
