package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository is the event outbox. The external notification dispatcher
// drains it; the core only appends.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, e *Event) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notification_events (id, type, creator_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, string(e.Type), e.CreatorID, payload, e.CreatedAt)
	return err
}

// ListRecent returns the latest events for the admin feed.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, type, creator_id, payload, created_at
		FROM notification_events
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e       Event
			typ     string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &typ, &e.CreatorID, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = EventType(typ)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
