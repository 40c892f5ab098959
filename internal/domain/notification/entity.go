package notification

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies domain events emitted by the monetization core.
type EventType string

const (
	TypeTrustScoreDowngraded EventType = "TRUST_SCORE_DOWNGRADED"
	TypeCreatorTierChanged   EventType = "CREATOR_TIER_CHANGED"
	TypeUnusualPayoutCluster EventType = "UNUSUAL_PAYOUT_CLUSTER"
)

// Event is a domain event bound for downstream notification delivery.
// Emission is fire-and-forget: the operation that produced the event never
// fails because delivery did.
type Event struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	Type      EventType      `db:"type" json:"type"`
	CreatorID uuid.UUID      `db:"creator_id" json:"creator_id"`
	Payload   map[string]any `db:"-" json:"payload"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
