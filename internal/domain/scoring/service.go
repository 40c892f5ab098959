package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cliplink/cliplink-api/internal/domain/notification"
	"github.com/cliplink/cliplink-api/internal/domain/traffic"
)

const (
	cacheTTL = 10 * time.Minute

	// A drop of this many points in one recompute triggers a notification
	// even when the tier stays the same.
	notableDropPoints = 10
)

// TrafficMetrics supplies the rolling aggregates the score is computed from.
// Implemented by traffic.Repository.
type TrafficMetrics interface {
	ComputeMetrics(ctx context.Context, creatorID uuid.UUID, windowDays int) (*traffic.CreatorTrafficMetrics, error)
	IsFlagged(ctx context.Context, creatorID uuid.UUID, windowDays int) (bool, error)
	ListActiveCreatorIDs(ctx context.Context, windowDays, limit int) ([]uuid.UUID, error)
}

// CreatorDirectory answers whether a creator has verified their channel.
// Implemented by campaign.Directory.
type CreatorDirectory interface {
	ChannelVerified(ctx context.Context, creatorID uuid.UUID) (bool, error)
}

type Service struct {
	repo       *Repository
	metrics    TrafficMetrics
	directory  CreatorDirectory
	redis      *redis.Client
	dispatcher *notification.Dispatcher
}

func NewService(
	repo *Repository,
	metrics TrafficMetrics,
	directory CreatorDirectory,
	redisClient *redis.Client,
	dispatcher *notification.Dispatcher,
) *Service {
	return &Service{
		repo:       repo,
		metrics:    metrics,
		directory:  directory,
		redis:      redisClient,
		dispatcher: dispatcher,
	}
}

func cacheKey(creatorID uuid.UUID) string {
	return fmt.Sprintf("trust:%s", creatorID)
}

// GetScore returns the creator's current trust score, computing one on the
// spot if the creator has never been scored.
func (s *Service) GetScore(ctx context.Context, creatorID uuid.UUID) (*CreatorTrustScore, error) {
	if cached := s.fromCache(ctx, creatorID); cached != nil {
		return cached, nil
	}

	score, err := s.repo.Get(ctx, creatorID)
	if errors.Is(err, ErrScoreNotFound) {
		return s.Recompute(ctx, creatorID)
	}
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, score)
	return score, nil
}

// Recompute rebuilds the creator's trust score from rolling traffic metrics
// and persists it. Notifications for notable drops and tier changes are
// fire-and-forget: a scoring run never fails because the hub is down.
func (s *Service) Recompute(ctx context.Context, creatorID uuid.UUID) (*CreatorTrustScore, error) {
	m, err := s.metrics.ComputeMetrics(ctx, creatorID, traffic.TrustWindowDays)
	if err != nil {
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	flagged, err := s.metrics.IsFlagged(ctx, creatorID, traffic.FlagWindowDays)
	if err != nil {
		return nil, fmt.Errorf("check flags: %w", err)
	}

	verified, err := s.directory.ChannelVerified(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("check verification: %w", err)
	}

	raw := ComputeTrustScore(TrustInputs{
		ValidationRate:  m.ValidationRate,
		ConversionRate:  m.ConversionRate,
		AvgFraudScore:   m.AvgFraudScore,
		AvgAnomalyScore: m.AvgAnomalyScore,
		FlaggedRecently: flagged,
		ChannelVerified: verified,
	})

	score := &CreatorTrustScore{
		CreatorID:       creatorID,
		Score:           raw,
		Tier:            TierForScore(raw),
		ChannelVerified: verified,
		ComputedAt:      time.Now().UTC(),
	}

	prev, err := s.repo.Upsert(ctx, score)
	if err != nil {
		return nil, fmt.Errorf("store score: %w", err)
	}
	s.toCache(ctx, score)

	s.notifyChanges(ctx, prev, score)

	log.Debug().
		Str("creator_id", creatorID.String()).
		Int("score", score.Score).
		Str("tier", string(score.Tier)).
		Bool("flagged", flagged).
		Msg("Trust score recomputed")

	return score, nil
}

// RecomputeAll refreshes scores for every creator with recent traffic.
// Individual failures are logged and skipped so one bad creator does not
// stall the sweep.
func (s *Service) RecomputeAll(ctx context.Context, batchSize int) (int, error) {
	ids, err := s.metrics.ListActiveCreatorIDs(ctx, traffic.TrustWindowDays, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list active creators: %w", err)
	}

	done := 0
	for _, id := range ids {
		if _, err := s.Recompute(ctx, id); err != nil {
			log.Error().Err(err).
				Str("creator_id", id.String()).
				Msg("Failed to recompute trust score")
			continue
		}
		done++
	}
	return done, nil
}

func (s *Service) notifyChanges(ctx context.Context, prev, cur *CreatorTrustScore) {
	if s.dispatcher == nil || prev == nil {
		return
	}

	if prev.Score-cur.Score >= notableDropPoints {
		s.dispatcher.Dispatch(ctx, notification.Event{
			Type:      notification.TypeTrustScoreDowngraded,
			CreatorID: cur.CreatorID,
			Payload: map[string]any{
				"previous_score": prev.Score,
				"score":          cur.Score,
			},
		})
	}

	if prev.Tier != cur.Tier {
		s.dispatcher.Dispatch(ctx, notification.Event{
			Type:      notification.TypeCreatorTierChanged,
			CreatorID: cur.CreatorID,
			Payload: map[string]any{
				"previous_tier": string(prev.Tier),
				"tier":          string(cur.Tier),
			},
		})
	}
}

func (s *Service) fromCache(ctx context.Context, creatorID uuid.UUID) *CreatorTrustScore {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, cacheKey(creatorID)).Bytes()
	if err != nil {
		return nil
	}
	var score CreatorTrustScore
	if err := json.Unmarshal(data, &score); err != nil {
		return nil
	}
	return &score
}

func (s *Service) toCache(ctx context.Context, score *CreatorTrustScore) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(score)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, cacheKey(score.CreatorID), data, cacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to cache trust score")
	}
}
