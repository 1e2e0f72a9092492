package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

const eventColumns = `id, era_id, title, summary, start_year, end_year, image, created_at`

// ListEvents returns every event, oldest first.
func (q *Queries) ListEvents(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	err := sqlx.SelectContext(ctx, q.ext, &events, `SELECT `+eventColumns+` FROM events ORDER BY start_year, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves an event by id.
func (q *Queries) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	var ev domain.Event
	err := sqlx.GetContext(ctx, q.ext, &ev, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, translate(err))
	}
	return &ev, nil
}

// InsertEvent stores a new event and assigns its id.
func (q *Queries) InsertEvent(ctx context.Context, ev *domain.Event) error {
	ev.ID = uuid.NewString()
	ev.CreatedAt = time.Now().UTC()
	_, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO events (id, era_id, title, summary, start_year, end_year, image, created_at)
		VALUES (:id, :era_id, :title, :summary, :start_year, :end_year, :image, :created_at)
	`, ev)
	if err != nil {
		return fmt.Errorf("failed to insert event %s: %w", ev.Title, translate(err))
	}
	return nil
}

// UpdateEvent overwrites the editable fields of an event. The image is
// changed through SetEventImage only.
func (q *Queries) UpdateEvent(ctx context.Context, ev *domain.Event) error {
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		UPDATE events
		SET era_id = :era_id, title = :title, summary = :summary, start_year = :start_year, end_year = :end_year
		WHERE id = :id
	`, ev)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", ev.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update event %s: %w", ev.ID, err)
	}
	return nil
}

// SetEventImage records the stored file name of the event's image.
func (q *Queries) SetEventImage(ctx context.Context, id, image string) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE events SET image = ? WHERE id = ?`, image, id)
	if err != nil {
		return fmt.Errorf("failed to set image for event %s: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to set image for event %s: %w", id, err)
	}
	return nil
}
