package scoring

import "testing"

func TestComputeTrustScore(t *testing.T) {
	tests := []struct {
		name string
		in   TrustInputs
		want int
	}{
		{
			name: "perfect verified creator",
			in: TrustInputs{
				ValidationRate:  100,
				ConversionRate:  1.0,
				AvgFraudScore:   0,
				AvgAnomalyScore: 0,
				ChannelVerified: true,
			},
			want: 100,
		},
		{
			name: "worst case",
			in: TrustInputs{
				ValidationRate:  0,
				ConversionRate:  0,
				AvgFraudScore:   100,
				AvgAnomalyScore: 10,
				ChannelVerified: true,
			},
			want: 0,
		},
		{
			name: "mid-quality verified creator",
			in: TrustInputs{
				ValidationRate:  80,  // 24 points
				ConversionRate:  0.5, // 15 points
				AvgFraudScore:   20,  // 16 points
				AvgAnomalyScore: 2,   // 16 points
				ChannelVerified: true,
			},
			want: 71,
		},
		{
			name: "recent flag caps a strong score at 30",
			in: TrustInputs{
				ValidationRate:  100,
				ConversionRate:  1.0,
				FlaggedRecently: true,
				ChannelVerified: true,
			},
			want: 30,
		},
		{
			name: "flag does not inflate an already-low score",
			in: TrustInputs{
				ValidationRate:  0,
				ConversionRate:  0,
				AvgFraudScore:   90, // 2 points
				AvgAnomalyScore: 9,  // 2 points
				FlaggedRecently: true,
				ChannelVerified: true,
			},
			want: 4,
		},
		{
			name: "unverified discount",
			in: TrustInputs{
				ValidationRate:  80,  // 24
				ConversionRate:  0.5, // 15
				AvgFraudScore:   20,  // 16
				AvgAnomalyScore: 2,   // 16
				ChannelVerified: false,
			},
			want: 53, // round(71 * 0.75)
		},
		{
			name: "unverified perfect creator hits the 70 cap",
			in: TrustInputs{
				ValidationRate:  100,
				ConversionRate:  1.0,
				ChannelVerified: false,
			},
			want: 70,
		},
		{
			name: "conversion rate above 1 saturates its component",
			in: TrustInputs{
				ValidationRate:  100,
				ConversionRate:  2.0,
				ChannelVerified: true,
			},
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTrustScore(tt.in)
			if got != tt.want {
				t.Errorf("ComputeTrustScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTierForScore(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{0, TierBronze},
		{49, TierBronze},
		{50, TierSilver},
		{79, TierSilver},
		{80, TierGold},
		{85, TierGold},
		{100, TierGold},
	}
	for _, tt := range tests {
		if got := TierForScore(tt.score); got != tt.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestTierForScoreMonotonic(t *testing.T) {
	rank := map[Tier]int{TierBronze: 0, TierSilver: 1, TierGold: 2}
	prev := TierBronze
	for score := 0; score <= 100; score++ {
		cur := TierForScore(score)
		if rank[cur] < rank[prev] {
			t.Fatalf("tier regressed from %s to %s at score %d", prev, cur, score)
		}
		prev = cur
	}
}

func TestQualityMultiplier(t *testing.T) {
	tests := []struct {
		tier     Tier
		verified bool
		want     float64
	}{
		{TierBronze, true, 0.8},
		{TierSilver, true, 1.0},
		{TierGold, true, 1.2},
		{TierBronze, false, 0.8 * 0.85},
		{TierSilver, false, 0.85},
		{TierGold, false, 1.2 * 0.85},
	}
	for _, tt := range tests {
		got := QualityMultiplier(tt.tier, tt.verified)
		if got != tt.want {
			t.Errorf("QualityMultiplier(%s, %v) = %v, want %v", tt.tier, tt.verified, got, tt.want)
		}
	}
}
