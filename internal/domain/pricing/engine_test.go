package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cliplink/cliplink-api/internal/domain/campaign"
	"github.com/cliplink/cliplink-api/internal/domain/scoring"
)

func testCampaign(mode campaign.CpmMode, enabled bool) *campaign.Campaign {
	return &campaign.Campaign{
		BaseCpmCents:      500,
		MinCpmCents:       250,
		MaxCpmCents:       750,
		DynamicCpmEnabled: enabled,
		DynamicCpmMode:    mode,
	}
}

func trustScore(score int, verified bool) *scoring.CreatorTrustScore {
	return &scoring.CreatorTrustScore{
		Score:           score,
		Tier:            scoring.TierForScore(score),
		ChannelVerified: verified,
	}
}

func TestAdjustCpmDisabled(t *testing.T) {
	q := AdjustCpm(testCampaign(campaign.CpmModeConservative, false), trustScore(85, true))

	assert.False(t, q.Dynamic)
	assert.Equal(t, int64(500), q.EffectiveCpmCents)
	assert.Equal(t, 1.0, q.Multiplier)
	assert.Empty(t, q.ClampReason)
}

func TestAdjustCpmNoTrustData(t *testing.T) {
	q := AdjustCpm(testCampaign(campaign.CpmModeAggressive, true), nil)

	assert.False(t, q.Dynamic)
	assert.Equal(t, int64(500), q.EffectiveCpmCents)
}

func TestAdjustCpmConservative(t *testing.T) {
	tests := []struct {
		name        string
		score       int
		wantCpm     int64
		wantClamp   string
		wantDynamic bool
	}{
		{"gold unclamped", 85, 600, "", true},
		{"silver stays at base", 60, 500, "", true},
		{"bronze clamps at min", 20, 250, ClampReasonMin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := AdjustCpm(testCampaign(campaign.CpmModeConservative, true), trustScore(tt.score, true))

			assert.Equal(t, tt.wantDynamic, q.Dynamic)
			assert.Equal(t, tt.wantCpm, q.EffectiveCpmCents)
			assert.Equal(t, tt.wantClamp, q.ClampReason)
		})
	}
}

func TestAdjustCpmAggressiveUsesRawMultiplier(t *testing.T) {
	// Gold unverified: 1.2 * 0.85 = 1.02
	q := AdjustCpm(testCampaign(campaign.CpmModeAggressive, true), trustScore(85, false))

	assert.True(t, q.Dynamic)
	assert.Equal(t, 1.2*0.85, q.Multiplier)
	assert.Equal(t, int64(510), q.EffectiveCpmCents)
	assert.Empty(t, q.ClampReason)
}

func TestAdjustCpmClampMax(t *testing.T) {
	c := testCampaign(campaign.CpmModeAggressive, true)
	c.MaxCpmCents = 550

	q := AdjustCpm(c, trustScore(85, true)) // 1.2x -> 600, over ceiling

	assert.Equal(t, int64(550), q.EffectiveCpmCents)
	assert.Equal(t, ClampReasonMax, q.ClampReason)

	// Landing exactly on the ceiling is still reported as capped.
	c.MaxCpmCents = 600
	q = AdjustCpm(c, trustScore(85, true))
	assert.Equal(t, int64(600), q.EffectiveCpmCents)
	assert.Equal(t, ClampReasonMax, q.ClampReason)
}

func TestAdjustCpmDefaultBounds(t *testing.T) {
	c := &campaign.Campaign{
		BaseCpmCents:      1000,
		DynamicCpmEnabled: true,
		DynamicCpmMode:    campaign.CpmModeConservative,
	}

	// Bronze 0.5x -> 500, exactly the default 0.5x floor: bound-constrained,
	// so the clamp reason is recorded.
	q := AdjustCpm(c, trustScore(20, true))
	assert.Equal(t, int64(500), q.EffectiveCpmCents)
	assert.Equal(t, ClampReasonMin, q.ClampReason)

	// Unverified bronze in aggressive mode lands below the floor.
	c.DynamicCpmMode = campaign.CpmModeAggressive
	q = AdjustCpm(c, trustScore(20, false)) // 0.8*0.85 = 0.68 -> 680
	assert.Equal(t, int64(680), q.EffectiveCpmCents)

	// Gold aggressive 1.2x -> 1200, under the default 1.5x ceiling.
	q = AdjustCpm(c, trustScore(85, true))
	assert.Equal(t, int64(1200), q.EffectiveCpmCents)
	assert.Empty(t, q.ClampReason)
}

func TestAdjustCpmPerViewAmount(t *testing.T) {
	q := AdjustCpm(testCampaign(campaign.CpmModeConservative, true), trustScore(85, true))
	assert.Equal(t, int64(0), q.PerViewAmountCents) // floor(600/1000)

	c := testCampaign(campaign.CpmModeConservative, false)
	c.BaseCpmCents = 2500
	q = AdjustCpm(c, nil)
	assert.Equal(t, int64(2), q.PerViewAmountCents) // floor(2500/1000)
}
