package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

const personColumns = `id, era_id, name, bio, born, died, image, created_at`

// ListPersons returns every person, ordered by year of birth.
func (q *Queries) ListPersons(ctx context.Context) ([]domain.Person, error) {
	var persons []domain.Person
	err := sqlx.SelectContext(ctx, q.ext, &persons, `SELECT `+personColumns+` FROM persons ORDER BY born, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	return persons, nil
}

// GetPerson retrieves a person by id.
func (q *Queries) GetPerson(ctx context.Context, id string) (*domain.Person, error) {
	var p domain.Person
	err := sqlx.GetContext(ctx, q.ext, &p, `SELECT `+personColumns+` FROM persons WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get person %s: %w", id, translate(err))
	}
	return &p, nil
}

// InsertPerson stores a new person and assigns its id.
func (q *Queries) InsertPerson(ctx context.Context, p *domain.Person) error {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO persons (id, era_id, name, bio, born, died, image, created_at)
		VALUES (:id, :era_id, :name, :bio, :born, :died, :image, :created_at)
	`, p)
	if err != nil {
		return fmt.Errorf("failed to insert person %s: %w", p.Name, translate(err))
	}
	return nil
}

// UpdatePerson overwrites the editable fields of a person.
func (q *Queries) UpdatePerson(ctx context.Context, p *domain.Person) error {
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		UPDATE persons
		SET era_id = :era_id, name = :name, bio = :bio, born = :born, died = :died
		WHERE id = :id
	`, p)
	if err != nil {
		return fmt.Errorf("failed to update person %s: %w", p.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update person %s: %w", p.ID, err)
	}
	return nil
}

// SetPersonImage records the stored file name of the person's image.
func (q *Queries) SetPersonImage(ctx context.Context, id, image string) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE persons SET image = ? WHERE id = ?`, image, id)
	if err != nil {
		return fmt.Errorf("failed to set image for person %s: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to set image for person %s: %w", id, err)
	}
	return nil
}
