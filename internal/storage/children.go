package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/zeitstrahl/internal/domain"
	"github.com/conorfennell/zeitstrahl/internal/reconcile"
)

// ChildKind names a child table and the column that points at its parent.
type ChildKind struct {
	table        string
	parentColumn string
}

var (
	// SubEvents are the sub-events of an event.
	SubEvents = ChildKind{table: "subevents", parentColumn: "event_id"}
	// Achievements are the achievements of a person.
	Achievements = ChildKind{table: "person_achievements", parentColumn: "person_id"}
)

func (k ChildKind) String() string { return k.table }

// ChildStore is the reconcile.Store of one child table.
type ChildStore struct {
	q    *Queries
	kind ChildKind
}

var _ reconcile.Store = (*ChildStore)(nil)

// Children returns the store for the given child table.
func (q *Queries) Children(kind ChildKind) *ChildStore {
	return &ChildStore{q: q, kind: kind}
}

// List returns the children of parentID ordered by year, then insertion order.
func (s *ChildStore) List(ctx context.Context, parentID string) ([]domain.ChildRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, %[2]s AS parent_id, title, description, year
		FROM %[1]s WHERE %[2]s = ?
		ORDER BY year, rowid
	`, s.kind.table, s.kind.parentColumn)

	recs := []domain.ChildRecord{}
	if err := sqlx.SelectContext(ctx, s.q.ext, &recs, query, parentID); err != nil {
		return nil, fmt.Errorf("failed to list %s of %s: %w", s.kind, parentID, err)
	}
	return recs, nil
}

// Create inserts a child of parentID.
func (s *ChildStore) Create(ctx context.Context, parentID string, c domain.ChildContent) (domain.ChildRecord, error) {
	rec := domain.ChildRecord{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		Title:       c.Title,
		Description: c.Description,
		Year:        c.Year,
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, %s, title, description, year) VALUES (?, ?, ?, ?, ?)`,
		s.kind.table, s.kind.parentColumn)
	if _, err := s.q.ext.ExecContext(ctx, query, rec.ID, rec.ParentID, rec.Title, rec.Description, rec.Year); err != nil {
		return domain.ChildRecord{}, fmt.Errorf("failed to insert into %s: %w", s.kind, translate(err))
	}
	return rec, nil
}

// Update overwrites the child with the given id.
func (s *ChildStore) Update(ctx context.Context, id, parentID string, c domain.ChildContent) (domain.ChildRecord, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, title = ?, description = ?, year = ? WHERE id = ?`,
		s.kind.table, s.kind.parentColumn)
	res, err := s.q.ext.ExecContext(ctx, query, parentID, c.Title, c.Description, c.Year, id)
	if err != nil {
		return domain.ChildRecord{}, fmt.Errorf("failed to update %s %s: %w", s.kind, id, translate(err))
	}
	if err := expectOne(res); err != nil {
		return domain.ChildRecord{}, fmt.Errorf("failed to update %s %s: %w", s.kind, id, err)
	}
	return domain.ChildRecord{ID: id, ParentID: parentID, Title: c.Title, Description: c.Description, Year: c.Year}, nil
}

// Delete removes the child with the given id.
func (s *ChildStore) Delete(ctx context.Context, id string) error {
	res, err := s.q.ext.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.kind.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", s.kind, id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", s.kind, id, err)
	}
	return nil
}
