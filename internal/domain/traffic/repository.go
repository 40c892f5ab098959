package traffic

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrEventNotFound = errors.New("traffic event not found")

const (
	// TrustWindowDays is the trailing window for trust scoring.
	TrustWindowDays = 30
	// FlagWindowDays is the trailing window for fraud flagging.
	FlagWindowDays = 7
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// GetVisitEvent looks up one visit by id.
func (r *Repository) GetVisitEvent(ctx context.Context, id uuid.UUID) (*VisitEvent, error) {
	var e VisitEvent
	err := r.db.GetContext(ctx, &e, `
		SELECT id, visitor_id, campaign_id, creator_id, is_validated, fraud_score, anomaly_score, occurred_at
		FROM visit_events
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetConversionEvent looks up one conversion by id.
func (r *Repository) GetConversionEvent(ctx context.Context, id uuid.UUID) (*ConversionEvent, error) {
	var e ConversionEvent
	err := r.db.GetContext(ctx, &e, `
		SELECT id, visit_id, campaign_id, creator_id, occurred_at
		FROM conversion_events
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ComputeMetrics aggregates a creator's trailing window in one query pass.
func (r *Repository) ComputeMetrics(ctx context.Context, creatorID uuid.UUID, windowDays int) (*CreatorTrafficMetrics, error) {
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	var row struct {
		TotalVisits     int     `db:"total_visits"`
		ValidatedVisits int     `db:"validated_visits"`
		AvgFraudScore   float64 `db:"avg_fraud_score"`
		AvgAnomalyScore float64 `db:"avg_anomaly_score"`
		Conversions     int     `db:"conversions"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*)                                            AS total_visits,
			COUNT(*) FILTER (WHERE is_validated)                AS validated_visits,
			COALESCE(AVG(fraud_score), 0)                       AS avg_fraud_score,
			COALESCE(AVG(anomaly_score), 0)                     AS avg_anomaly_score,
			(SELECT COUNT(*) FROM conversion_events c
			 WHERE c.creator_id = $1 AND c.occurred_at >= $2)   AS conversions
		FROM visit_events
		WHERE creator_id = $1 AND occurred_at >= $2
	`, creatorID, since)
	if err != nil {
		return nil, err
	}

	m := &CreatorTrafficMetrics{
		CreatorID:       creatorID,
		AvgFraudScore:   row.AvgFraudScore,
		AvgAnomalyScore: row.AvgAnomalyScore,
		TotalVisits:     row.TotalVisits,
		WindowDays:      windowDays,
		ComputedAt:      time.Now().UTC(),
	}
	if row.TotalVisits > 0 {
		m.ValidationRate = float64(row.ValidatedVisits) / float64(row.TotalVisits) * 100
	}
	if row.ValidatedVisits > 0 {
		m.ConversionRate = float64(row.Conversions) / float64(row.ValidatedVisits)
	}

	flagged, err := r.IsFlagged(ctx, creatorID, FlagWindowDays)
	if err != nil {
		return nil, err
	}
	m.IsFlagged = flagged

	return m, nil
}

// IsFlagged reports whether the creator has a fraud flag within the window.
func (r *Repository) IsFlagged(ctx context.Context, creatorID uuid.UUID, windowDays int) (bool, error) {
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	var flagged bool
	err := r.db.GetContext(ctx, &flagged, `
		SELECT EXISTS (
			SELECT 1 FROM fraud_flags
			WHERE creator_id = $1 AND flagged_at >= $2
		)
	`, creatorID, since)
	return flagged, err
}

// FlagCreator records a fraud flag from an automated trigger or an admin.
func (r *Repository) FlagCreator(ctx context.Context, creatorID uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fraud_flags (id, creator_id, reason, flagged_at)
		VALUES ($1, $2, $3, now())
	`, uuid.New(), creatorID, reason)
	return err
}

// ListActiveCreatorIDs returns creators with any traffic inside the window,
// for the trust recompute sweep.
func (r *Repository) ListActiveCreatorIDs(ctx context.Context, windowDays, limit int) ([]uuid.UUID, error) {
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	ids := []uuid.UUID{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT creator_id
		FROM visit_events
		WHERE occurred_at >= $1
		LIMIT $2
	`, since, limit)
	return ids, err
}
