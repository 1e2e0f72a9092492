package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/zeitstrahl/internal/domain"
)

const cardColumns = `id, question, answer, context, hash, status, due_at, person_id, event_id, source_id, created_at`

// ListCards returns every card in creation order.
func (q *Queries) ListCards(ctx context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	err := sqlx.SelectContext(ctx, q.ext, &cards, `SELECT `+cardColumns+` FROM cards ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

// ListCardsBySource returns the cards imported from a source.
func (q *Queries) ListCardsBySource(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	var cards []domain.Card
	err := sqlx.SelectContext(ctx, q.ext, &cards,
		`SELECT `+cardColumns+` FROM cards WHERE source_id = ? ORDER BY rowid`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards of source %d: %w", sourceID, err)
	}
	return cards, nil
}

// GetCard retrieves a card by id.
func (q *Queries) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	var card domain.Card
	err := sqlx.GetContext(ctx, q.ext, &card, `SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card %s: %w", id, translate(err))
	}
	return &card, nil
}

// InsertCard stores a new card. A card whose hash is already present is
// ignored and inserted reports false.
func (q *Queries) InsertCard(ctx context.Context, card *domain.Card) (inserted bool, err error) {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now().UTC()
	}
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		INSERT INTO cards (id, question, answer, context, hash, status, due_at, person_id, event_id, source_id, created_at)
		VALUES (:id, :question, :answer, :context, :hash, :status, :due_at, :person_id, :event_id, :source_id, :created_at)
		ON CONFLICT(hash) DO NOTHING
	`, card)
	if err != nil {
		return false, fmt.Errorf("failed to insert card: %w", translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// UpdateCardContent replaces the question, answer, and hash of a card.
func (q *Queries) UpdateCardContent(ctx context.Context, card *domain.Card) error {
	res, err := sqlx.NamedExecContext(ctx, q.ext, `
		UPDATE cards SET question = :question, answer = :answer, context = :context, hash = :hash
		WHERE id = :id
	`, card)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, translate(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	return nil
}

// UpdateCardSchedule stores the review state of a card.
func (q *Queries) UpdateCardSchedule(ctx context.Context, id string, level domain.Level, dueAt time.Time) error {
	res, err := q.ext.ExecContext(ctx, `UPDATE cards SET status = ?, due_at = ? WHERE id = ?`, level, dueAt, id)
	if err != nil {
		return fmt.Errorf("failed to update schedule of card %s: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update schedule of card %s: %w", id, err)
	}
	return nil
}

// DeleteCard removes a card.
func (q *Queries) DeleteCard(ctx context.Context, id string) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}
