package scoring

// Per-visit fraud signal weights. Preserved exactly for behavioral parity
// with historical scoring; flagged for product review, not tuned here.
const (
	weightBotUserAgent        = 100 // dominant: any bot detection saturates the score
	weightIPVelocity          = 40
	weightHighIPCount         = 20
	weightSuspiciousUserAgent = 30
	weightVPN                 = 35
	weightDataCenterIP        = 25
	weightRepeatDeviceHighIP  = 15
	weightMissingReferrer     = 10
	weightKnownCountry        = -15
	weightRepeatLegitVisitor  = -10

	ipVelocityPerHourLimit = 10
	highHistoricalIPCount  = 50
)

// DefaultSuspiciousThreshold marks views that are excluded from payable
// validated-view counts. Overridable via config.
const DefaultSuspiciousThreshold = 50

// VisitSignals are the traffic-quality observations for one visit, supplied
// by the tracking layer.
type VisitSignals struct {
	BotUserAgent            bool
	IPRequestsLastHour      int
	HistoricalIPCount       int
	SuspiciousUserAgent     bool
	VPN                     bool
	DataCenterIP            bool
	RepeatDeviceHighIPCount bool
	MissingReferrer         bool
	EstablishedIPHistory    bool
	KnownCountry            bool
	RepeatLegitimateVisitor bool
}

// ScoreVisit computes the per-visit fraud score, 0-100, higher = more
// suspicious.
func ScoreVisit(s VisitSignals) int {
	score := 0

	if s.BotUserAgent {
		score += weightBotUserAgent
	}
	if s.IPRequestsLastHour > ipVelocityPerHourLimit {
		score += weightIPVelocity
	}
	if s.HistoricalIPCount > highHistoricalIPCount {
		score += weightHighIPCount
	}
	if s.SuspiciousUserAgent {
		score += weightSuspiciousUserAgent
	}
	if s.VPN {
		score += weightVPN
	}
	if s.DataCenterIP {
		score += weightDataCenterIP
	}
	if s.RepeatDeviceHighIPCount {
		score += weightRepeatDeviceHighIP
	}
	if s.MissingReferrer && s.EstablishedIPHistory {
		score += weightMissingReferrer
	}
	if s.KnownCountry {
		score += weightKnownCountry
	}
	if s.RepeatLegitimateVisitor {
		score += weightRepeatLegitVisitor
	}

	return clampScore(score)
}

// IsSuspicious reports whether a score meets the exclusion threshold.
func IsSuspicious(score, threshold int) bool {
	return score >= threshold
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
