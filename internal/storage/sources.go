package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Source types.
const (
	SourceLocal = "local"
	SourceGit   = "git"
)

// Source represents a source of cards, like a local directory or a git repository.
type Source struct {
	ID          int64      `db:"id" json:"id"`
	Path        string     `db:"path" json:"path"`
	Type        string     `db:"type" json:"type"`
	LastScanned *time.Time `db:"last_scanned" json:"last_scanned"`
}

// InsertSource adds a new source and returns its id.
func (q *Queries) InsertSource(ctx context.Context, path, sourceType string) (int64, error) {
	res, err := q.ext.ExecContext(ctx, "INSERT INTO sources (path, type) VALUES (?, ?)", path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, translate(err))
	}
	return res.LastInsertId()
}

// FindSourceByPath retrieves a source by its path.
func (q *Queries) FindSourceByPath(ctx context.Context, path string) (*Source, error) {
	var s Source
	err := sqlx.GetContext(ctx, q.ext, &s, "SELECT id, path, type, last_scanned FROM sources WHERE path = ?", path)
	if err != nil {
		return nil, fmt.Errorf("failed to find source %s: %w", path, translate(err))
	}
	return &s, nil
}

// GetSource retrieves a source by id.
func (q *Queries) GetSource(ctx context.Context, id int64) (*Source, error) {
	var s Source
	err := sqlx.GetContext(ctx, q.ext, &s, "SELECT id, path, type, last_scanned FROM sources WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get source %d: %w", id, translate(err))
	}
	return &s, nil
}

// GetAllSources retrieves all sources from the database.
func (q *Queries) GetAllSources(ctx context.Context) ([]Source, error) {
	sources := []Source{}
	err := sqlx.SelectContext(ctx, q.ext, &sources, "SELECT id, path, type, last_scanned FROM sources ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}
	return sources, nil
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (q *Queries) UpdateSourceLastScanned(ctx context.Context, id int64, at time.Time) error {
	res, err := q.ext.ExecContext(ctx, "UPDATE sources SET last_scanned = ? WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("failed to update source %d: %w", id, err)
	}
	return expectOne(res)
}

// DeleteSource removes a source. Its cards are removed with it.
func (q *Queries) DeleteSource(ctx context.Context, id int64) error {
	res, err := q.ext.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}
