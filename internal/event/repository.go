package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sport       string    `json:"sport"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	OrganizerID string    `json:"organizerId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type EventInput struct {
	Name     string
	Sport    string
	Location string
	Date     time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, input EventInput, organizerID string) (Event, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Event{}, fmt.Errorf("generate event id: %w", err)
	}

	e := Event{
		ID:          id.String(),
		Name:        input.Name,
		Sport:       input.Sport,
		Location:    input.Location,
		Date:        input.Date,
		OrganizerID: organizerID,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (id, name, sport, location, date, organizer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Name, e.Sport, e.Location, e.Date, e.OrganizerID, e.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}

	return e, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, sport, location, date, organizer_id, created_at
		FROM events
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Sport, &e.Location, &e.Date, &e.OrganizerID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return total, nil
}

// DeleteOlderThan removes events whose date is before cutoff, in batches, for
// the maintenance endpoint.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM events
			WHERE date < $1
			ORDER BY date ASC
			LIMIT $2
		)
		DELETE FROM events e
		USING stale
		WHERE e.id = stale.id
	`, cutoff.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("delete stale events: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale events rows affected: %w", err)
	}
	return affected, nil
}
