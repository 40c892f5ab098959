package scoring

import "math"

// Tier is the trust bucket driving payout pricing.
type Tier string

const (
	TierBronze Tier = "BRONZE"
	TierSilver Tier = "SILVER"
	TierGold   Tier = "GOLD"
)

const (
	silverThreshold = 50
	goldThreshold   = 80

	flaggedScoreCap    = 30
	unverifiedScoreCap = 70
	unverifiedDiscount = 0.75

	unverifiedMultiplierDiscount = 0.85
)

// TrustInputs are the 30-day traffic-quality aggregates and creator facts
// that feed the trust formula.
type TrustInputs struct {
	ValidationRate  float64 // percent, 0-100
	ConversionRate  float64 // fraction of validated visits, 0-1
	AvgFraudScore   float64 // 0-100
	AvgAnomalyScore float64 // 0-10
	FlaggedRecently bool    // fraud flag within the trailing 7 days
	ChannelVerified bool
}

// ComputeTrustScore computes the rolling 0-100 trust score. A recent fraud
// flag caps the score at 30 regardless of the formula; unverified channels
// are discounted to 75% and capped at 70.
func ComputeTrustScore(in TrustInputs) int {
	validationPoints := math.Min(30, in.ValidationRate/100*30)
	conversionPoints := math.Min(30, in.ConversionRate*30)
	fraudPoints := math.Max(0, 20-in.AvgFraudScore/100*20)
	anomalyPoints := math.Max(0, 20-in.AvgAnomalyScore/10*20)

	score := clampScore(int(math.Round(validationPoints + conversionPoints + fraudPoints + anomalyPoints)))

	if in.FlaggedRecently && score > flaggedScoreCap {
		score = flaggedScoreCap
	}

	if !in.ChannelVerified {
		discounted := int(math.Round(float64(score) * unverifiedDiscount))
		if discounted > unverifiedScoreCap {
			discounted = unverifiedScoreCap
		}
		score = discounted
	}

	return score
}

// TierForScore buckets a trust score.
func TierForScore(score int) Tier {
	switch {
	case score >= goldThreshold:
		return TierGold
	case score >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// QualityMultiplier is the per-tier payout multiplier, discounted for
// unverified creators.
func QualityMultiplier(tier Tier, verified bool) float64 {
	var m float64
	switch tier {
	case TierGold:
		m = 1.2
	case TierSilver:
		m = 1.0
	default:
		m = 0.8
	}
	if !verified {
		m *= unverifiedMultiplierDiscount
	}
	return m
}
