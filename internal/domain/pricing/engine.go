package pricing

import (
	"github.com/cliplink/cliplink-api/internal/domain/campaign"
	"github.com/cliplink/cliplink-api/internal/domain/scoring"
)

const (
	ClampReasonMin = "capped at min"
	ClampReasonMax = "capped at max"
)

// Quote is the effective CPM for one campaign/creator pair, with enough
// context recorded to audit why the number came out the way it did.
type Quote struct {
	BaseCpmCents       int64   `json:"base_cpm_cents"`
	EffectiveCpmCents  int64   `json:"effective_cpm_cents"`
	Multiplier         float64 `json:"multiplier"`
	Dynamic            bool    `json:"dynamic"`
	ClampReason        string  `json:"clamp_reason,omitempty"`
	PerViewAmountCents int64   `json:"per_view_amount_cents"`
}

// Conservative mode flattens the upside: fixed per-tier multipliers instead
// of the raw quality multiplier, so unverified quality signals cannot inflate
// payouts.
var conservativeMultipliers = map[scoring.Tier]float64{
	scoring.TierBronze: 0.5,
	scoring.TierSilver: 1.0,
	scoring.TierGold:   1.2,
}

// AdjustCpm computes the effective CPM for a creator on a campaign.
// A nil trust score means trust data is unavailable and the base CPM applies
// unadjusted, same as when dynamic pricing is disabled.
func AdjustCpm(c *campaign.Campaign, trust *scoring.CreatorTrustScore) Quote {
	q := Quote{
		BaseCpmCents:      c.BaseCpmCents,
		EffectiveCpmCents: c.BaseCpmCents,
		Multiplier:        1.0,
	}

	if c.DynamicCpmEnabled && trust != nil {
		q.Dynamic = true
		switch c.DynamicCpmMode {
		case campaign.CpmModeAggressive:
			q.Multiplier = trust.Multiplier()
		default:
			q.Multiplier = conservativeMultipliers[trust.Tier]
		}
		q.EffectiveCpmCents = int64(float64(c.BaseCpmCents) * q.Multiplier)

		// Landing exactly on a bound still counts as capped, so audits can
		// tell a bound-constrained quote from a freely adjusted one.
		if min := c.EffectiveMinCpm(); q.EffectiveCpmCents <= min {
			q.EffectiveCpmCents = min
			q.ClampReason = ClampReasonMin
		} else if max := c.EffectiveMaxCpm(); q.EffectiveCpmCents >= max {
			q.EffectiveCpmCents = max
			q.ClampReason = ClampReasonMax
		}
	}

	q.PerViewAmountCents = q.EffectiveCpmCents / 1000
	return q
}
