package traffic

import (
	"time"

	"github.com/google/uuid"
)

// VisitEvent is a validated traffic fact produced by the tracking/redirect
// layer. The monetization core consumes these read-only.
type VisitEvent struct {
	ID           uuid.UUID `db:"id" json:"id"`
	VisitorID    string    `db:"visitor_id" json:"visitor_id"`
	CampaignID   uuid.UUID `db:"campaign_id" json:"campaign_id"`
	CreatorID    uuid.UUID `db:"creator_id" json:"creator_id"`
	IsValidated  bool      `db:"is_validated" json:"is_validated"`
	FraudScore   int       `db:"fraud_score" json:"fraud_score"`
	AnomalyScore float64   `db:"anomaly_score" json:"anomaly_score"`
	OccurredAt   time.Time `db:"occurred_at" json:"occurred_at"`
}

// ConversionEvent is a conversion fact tied to an earlier visit.
type ConversionEvent struct {
	ID         uuid.UUID `db:"id" json:"id"`
	VisitID    uuid.UUID `db:"visit_id" json:"visit_id"`
	CampaignID uuid.UUID `db:"campaign_id" json:"campaign_id"`
	CreatorID  uuid.UUID `db:"creator_id" json:"creator_id"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// CreatorTrafficMetrics is a rolling aggregate over a trailing window.
// Recomputed from events, never hand-edited. ValidationRate is a percentage
// (0-100); ConversionRate is a fraction of validated visits (0-1).
type CreatorTrafficMetrics struct {
	CreatorID       uuid.UUID `db:"creator_id" json:"creator_id"`
	ValidationRate  float64   `db:"validation_rate" json:"validation_rate"`
	ConversionRate  float64   `db:"conversion_rate" json:"conversion_rate"`
	AvgFraudScore   float64   `db:"avg_fraud_score" json:"avg_fraud_score"`
	AvgAnomalyScore float64   `db:"avg_anomaly_score" json:"avg_anomaly_score"`
	TotalVisits     int       `db:"total_visits" json:"total_visits"`
	IsFlagged       bool      `db:"is_flagged" json:"is_flagged"`
	WindowDays      int       `db:"window_days" json:"window_days"`
	ComputedAt      time.Time `db:"computed_at" json:"computed_at"`
}
