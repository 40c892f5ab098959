package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo       *Repository
	reserveTTL time.Duration
}

func NewService(repo *Repository, reserveTTL time.Duration) *Service {
	return &Service{repo: repo, reserveTTL: reserveTTL}
}

func (s *Service) GetWallet(ctx context.Context, ownerID uuid.UUID) (*Wallet, error) {
	return s.repo.GetWallet(ctx, ownerID)
}

// Deposit credits the wallet after the PSP confirmed the payment intent.
// Never called speculatively; the webhook handler verifies the signature
// and captured state first.
func (s *Service) Deposit(ctx context.Context, ownerID uuid.UUID, amount int64, paymentRef string) error {
	if amount <= 0 || paymentRef == "" {
		return ErrInvalidAmount
	}
	if err := s.repo.Deposit(ctx, ownerID, amount, paymentRef); err != nil {
		return err
	}
	log.Info().
		Str("owner_id", ownerID.String()).
		Int64("amount", amount).
		Str("payment_ref", paymentRef).
		Msg("Wallet deposit applied")
	return nil
}

// LockFunds reserves funds against a campaign.
func (s *Service) LockFunds(ctx context.Context, ownerID, campaignID uuid.UUID, amount int64, referenceID string) (*Reserve, error) {
	if amount <= 0 || referenceID == "" || campaignID == uuid.Nil {
		return nil, ErrInvalidAmount
	}
	reserve, err := s.repo.LockFunds(ctx, ownerID, campaignID, amount, referenceID, s.reserveTTL)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("owner_id", ownerID.String()).
		Str("campaign_id", campaignID.String()).
		Str("reserve_id", reserve.ID.String()).
		Int64("amount", amount).
		Msg("Funds locked")
	return reserve, nil
}

// ReleaseFunds consumes a reserve into campaign spend.
func (s *Service) ReleaseFunds(ctx context.Context, reserveID uuid.UUID) error {
	if err := s.repo.ReleaseFunds(ctx, reserveID); err != nil {
		return err
	}
	log.Info().Str("reserve_id", reserveID.String()).Msg("Reserve consumed")
	return nil
}

// ReleaseExpiredReserves returns expired locked funds to available. Each
// reserve is its own transaction: one bad row is skipped, the batch continues.
func (s *Service) ReleaseExpiredReserves(ctx context.Context, batchSize int) (int, error) {
	now := time.Now().UTC()
	ids, err := s.repo.listExpiredReserveIDs(ctx, now, batchSize)
	if err != nil {
		return 0, err
	}

	returned := 0
	for _, id := range ids {
		if err := s.repo.returnReserve(ctx, id, now); err != nil {
			if errors.Is(err, ErrReserveNotActive) {
				// raced by an admin release or a concurrent sweep
				continue
			}
			log.Error().Err(err).Str("reserve_id", id.String()).Msg("Failed to return expired reserve")
			continue
		}
		returned++
	}

	if returned > 0 {
		log.Info().Int("count", returned).Msg("Expired reserves returned")
	}
	return returned, nil
}
