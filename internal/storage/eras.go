package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

const eraColumns = `id, name, description, start_year, end_year, created_at`

// ListEras returns every era, oldest first.
func (q *Queries) ListEras(ctx context.Context) ([]domain.Era, error) {
	var eras []domain.Era
	err := sqlx.SelectContext(ctx, q.ext, &eras, `SELECT `+eraColumns+` FROM eras ORDER BY start_year, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list eras: %w", err)
	}
	return eras, nil
}

// GetEra retrieves an era by id.
func (q *Queries) GetEra(ctx context.Context, id string) (*domain.Era, error) {
	var era domain.Era
	err := sqlx.GetContext(ctx, q.ext, &era, `SELECT `+eraColumns+` FROM eras WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get era %s: %w", id, translate(err))
	}
	return &era, nil
}

// FindEraCovering returns the first era whose span contains year.
func (q *Queries) FindEraCovering(ctx context.Context, year int) (*domain.Era, error) {
	var era domain.Era
	err := sqlx.GetContext(ctx, q.ext, &era, `
		SELECT `+eraColumns+` FROM eras
		WHERE start_year <= ? AND end_year >= ?
		ORDER BY start_year, rowid
		LIMIT 1
	`, year, year)
	if err != nil {
		return nil, fmt.Errorf("failed to find era covering %d: %w", year, translate(err))
	}
	return &era, nil
}

// InsertEra stores a new era and assigns its id.
func (q *Queries) InsertEra(ctx context.Context, era *domain.Era) error {
	era.ID = uuid.NewString()
	era.CreatedAt = time.Now().UTC()
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO eras (id, name, description, start_year, end_year, created_at)
		VALUES (:id, :name, :description, :start_year, :end_year, :created_at)
	`, era)
	if err != nil {
		return fmt.Errorf("failed to insert era %s: %w", era.Name, translate(err))
	}
	return nil
}

// UpdateEra overwrites the editable fields of an era.
func (q *Queries) UpdateEra(ctx context.Context, era *domain.Era) error {
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		UPDATE eras
		SET name = :name, description = :description, start_year = :start_year, end_year = :end_year
		WHERE id = :id
	`, era)
	if err != nil {
		return fmt.Errorf("failed to update era %s: %w", era.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update era %s: %w", era.ID, err)
	}
	return nil
}
