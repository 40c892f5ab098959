package scoring

import (
	"time"

	"github.com/google/uuid"
)

// CreatorTrustScore is the persisted rolling trust score. Old scores are
// overwritten on recompute; the previous value is only read back transiently
// to detect drops worth notifying about.
type CreatorTrustScore struct {
	CreatorID       uuid.UUID `db:"creator_id" json:"creator_id"`
	Score           int       `db:"score" json:"score"`
	Tier            Tier      `db:"tier" json:"tier"`
	ChannelVerified bool      `db:"channel_verified" json:"channel_verified"`
	ComputedAt      time.Time `db:"computed_at" json:"computed_at"`
}

// Multiplier returns the creator's current quality multiplier.
func (s *CreatorTrustScore) Multiplier() float64 {
	return QualityMultiplier(s.Tier, s.ChannelVerified)
}
