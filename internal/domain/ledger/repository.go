package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts one entry in its own transaction.
func (r *Repository) Append(ctx context.Context, e *Entry) error {
	return r.insert(ctx, r.db, e)
}

// AppendTx inserts one entry inside the caller's transaction.
func (r *Repository) AppendTx(ctx context.Context, tx *sqlx.Tx, e *Entry) error {
	return r.insert(ctx, tx, e)
}

// AppendPairTx inserts a payout entry and its platform-fee entry atomically
// inside the caller's transaction. The fee entry reuses the payout's ref
// event id; the type column keeps the pair apart under the unique key.
func (r *Repository) AppendPairTx(ctx context.Context, tx *sqlx.Tx, payout, fee *Entry) error {
	if err := r.insert(ctx, tx, payout); err != nil {
		return err
	}
	return r.insert(ctx, tx, fee)
}

// sqlx.ExtContext is satisfied by both *sqlx.DB and *sqlx.Tx.
func (r *Repository) insert(ctx context.Context, q sqlx.ExtContext, e *Entry) error {
	if e.AmountCents == 0 {
		return ErrInvalidAmount
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, campaign_id, creator_id, type, amount_cents, ref_event_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.CampaignID, e.CreatorID, string(e.Type), e.AmountCents, e.RefEventID, e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

// SumByCampaign aggregates committed entries of the given types for a campaign.
func (r *Repository) SumByCampaign(ctx context.Context, campaignID uuid.UUID, types []EntryType) (int64, error) {
	return r.sum(ctx, r.db, `campaign_id`, campaignID, types)
}

// SumByCampaignTx is SumByCampaign inside the caller's transaction, so budget
// checks see the same snapshot the release writes into.
func (r *Repository) SumByCampaignTx(ctx context.Context, tx *sqlx.Tx, campaignID uuid.UUID, types []EntryType) (int64, error) {
	return r.sum(ctx, tx, `campaign_id`, campaignID, types)
}

// SumByCreator aggregates committed entries of the given types for a creator.
func (r *Repository) SumByCreator(ctx context.Context, creatorID uuid.UUID, types []EntryType) (int64, error) {
	return r.sum(ctx, r.db, `creator_id`, creatorID, types)
}

func (r *Repository) sum(ctx context.Context, q sqlx.ExtContext, column string, id uuid.UUID, types []EntryType) (int64, error) {
	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}

	var total int64
	err := sqlx.GetContext(ctx, q, &total, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM ledger_entries
		WHERE `+column+` = $1 AND type = ANY($2)
	`, id, pq.Array(typeNames))
	return total, err
}

// ListByCreator returns a creator's entries within [from, to), newest first.
func (r *Repository) ListByCreator(ctx context.Context, creatorID uuid.UUID, from, to time.Time, limit, offset int) ([]Entry, error) {
	entries := []Entry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, campaign_id, creator_id, type, amount_cents, ref_event_id, created_at
		FROM ledger_entries
		WHERE creator_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, creatorID, from, to, limit, offset)
	return entries, err
}

// GetByEventTx fetches the entry of one type recorded for an event, inside
// the caller's transaction. Returns ErrNotFound when absent.
func (r *Repository) GetByEventTx(ctx context.Context, tx *sqlx.Tx, campaignID, creatorID uuid.UUID, refEventID string, entryType EntryType) (*Entry, error) {
	var e Entry
	err := tx.GetContext(ctx, &e, `
		SELECT id, campaign_id, creator_id, type, amount_cents, ref_event_id, created_at
		FROM ledger_entries
		WHERE campaign_id = $1 AND creator_id = $2 AND ref_event_id = $3 AND type = $4
		LIMIT 1
	`, campaignID, creatorID, refEventID, string(entryType))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ExistsForEvent reports whether any entry references the event for the pair.
func (r *Repository) ExistsForEvent(ctx context.Context, campaignID, creatorID uuid.UUID, refEventID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM ledger_entries
			WHERE campaign_id = $1 AND creator_id = $2 AND ref_event_id = $3
		)
	`, campaignID, creatorID, refEventID)
	return exists, err
}
