package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/domain/campaign"
	"github.com/cliplink/cliplink-api/internal/domain/scoring"
)

// TrustSource supplies the creator's current trust score. Implemented by
// scoring.Service.
type TrustSource interface {
	GetScore(ctx context.Context, creatorID uuid.UUID) (*scoring.CreatorTrustScore, error)
}

type Service struct {
	campaigns *campaign.Repository
	trust     TrustSource
}

func NewService(campaigns *campaign.Repository, trust TrustSource) *Service {
	return &Service{campaigns: campaigns, trust: trust}
}

// QuoteFor resolves campaign config and trust data and prices one view.
// Trust lookup failures degrade to base CPM rather than failing the quote.
func (s *Service) QuoteFor(ctx context.Context, campaignID, creatorID uuid.UUID) (*Quote, error) {
	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	var trust *scoring.CreatorTrustScore
	if c.DynamicCpmEnabled {
		trust, err = s.trust.GetScore(ctx, creatorID)
		if err != nil && !errors.Is(err, scoring.ErrScoreNotFound) {
			log.Warn().Err(err).
				Str("creator_id", creatorID.String()).
				Msg("Trust score unavailable, falling back to base CPM")
		}
	}

	q := AdjustCpm(c, trust)
	return &q, nil
}
