package scoring

import "testing"

func TestScoreVisit(t *testing.T) {
	tests := []struct {
		name    string
		signals VisitSignals
		want    int
	}{
		{
			name:    "clean visit",
			signals: VisitSignals{},
			want:    0,
		},
		{
			name:    "bot user agent saturates",
			signals: VisitSignals{BotUserAgent: true},
			want:    100,
		},
		{
			name: "bot plus everything else still clamps to 100",
			signals: VisitSignals{
				BotUserAgent:        true,
				VPN:                 true,
				DataCenterIP:        true,
				SuspiciousUserAgent: true,
			},
			want: 100,
		},
		{
			name:    "ip velocity over limit",
			signals: VisitSignals{IPRequestsLastHour: 11},
			want:    40,
		},
		{
			name:    "ip velocity at limit does not trigger",
			signals: VisitSignals{IPRequestsLastHour: 10},
			want:    0,
		},
		{
			name:    "high historical ip count",
			signals: VisitSignals{HistoricalIPCount: 51},
			want:    20,
		},
		{
			name:    "vpn plus datacenter",
			signals: VisitSignals{VPN: true, DataCenterIP: true},
			want:    60,
		},
		{
			name:    "missing referrer alone is not penalized",
			signals: VisitSignals{MissingReferrer: true},
			want:    0,
		},
		{
			name:    "missing referrer with established ip history",
			signals: VisitSignals{MissingReferrer: true, EstablishedIPHistory: true},
			want:    10,
		},
		{
			name:    "negative signals clamp to zero",
			signals: VisitSignals{KnownCountry: true, RepeatLegitimateVisitor: true},
			want:    0,
		},
		{
			name: "positive and negative signals net out",
			signals: VisitSignals{
				VPN:          true,
				KnownCountry: true,
			},
			want: 20,
		},
		{
			name: "suspicious mix crosses default threshold",
			signals: VisitSignals{
				SuspiciousUserAgent: true,
				DataCenterIP:        true,
			},
			want: 55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreVisit(tt.signals)
			if got != tt.want {
				t.Errorf("ScoreVisit() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsSuspicious(t *testing.T) {
	if IsSuspicious(49, DefaultSuspiciousThreshold) {
		t.Error("score below threshold should not be suspicious")
	}
	if !IsSuspicious(50, DefaultSuspiciousThreshold) {
		t.Error("score at threshold should be suspicious")
	}
	if !IsSuspicious(100, DefaultSuspiciousThreshold) {
		t.Error("max score should be suspicious")
	}
}
