package scoring

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, creatorID uuid.UUID) (*CreatorTrustScore, error) {
	var s CreatorTrustScore
	err := r.db.GetContext(ctx, &s, `
		SELECT creator_id, score, tier, channel_verified, computed_at
		FROM creator_trust_scores
		WHERE creator_id = $1`, creatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScoreNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert stores the recomputed score and returns the previous one, or nil
// when the creator had never been scored.
func (r *Repository) Upsert(ctx context.Context, s *CreatorTrustScore) (*CreatorTrustScore, error) {
	if s.ComputedAt.IsZero() {
		s.ComputedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var prev CreatorTrustScore
	err = tx.GetContext(ctx, &prev, `
		SELECT creator_id, score, tier, channel_verified, computed_at
		FROM creator_trust_scores
		WHERE creator_id = $1
		FOR UPDATE`, s.CreatorID)
	hadPrev := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO creator_trust_scores (creator_id, score, tier, channel_verified, computed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (creator_id) DO UPDATE SET
			score = EXCLUDED.score,
			tier = EXCLUDED.tier,
			channel_verified = EXCLUDED.channel_verified,
			computed_at = EXCLUDED.computed_at`,
		s.CreatorID, s.Score, s.Tier, s.ChannelVerified, s.ComputedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	if !hadPrev {
		return nil, nil
	}
	return &prev, nil
}
