package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StatementStorage stores rendered statements and hands out download URLs.
type StatementStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Statement describes an exported monthly statement.
type Statement struct {
	CreatorID   uuid.UUID `json:"creator_id"`
	Period      string    `json:"period"` // YYYY-MM
	EntryCount  int       `json:"entry_count"`
	NetCents    int64     `json:"net_cents"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

const statementURLTTL = 24 * time.Hour

// StatementService renders a creator's monthly ledger activity to CSV and
// uploads it to object storage. Export never mutates the ledger; storage
// failures surface to the caller but cannot corrupt state.
type StatementService struct {
	repo    *Repository
	storage StatementStorage
}

func NewStatementService(repo *Repository, storage StatementStorage) *StatementService {
	return &StatementService{repo: repo, storage: storage}
}

// Export renders and uploads the statement for one calendar month.
func (s *StatementService) Export(ctx context.Context, creatorID uuid.UUID, year int, month time.Month) (*Statement, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	// Statements are monthly; 10k entries is far beyond any observed month.
	entries, err := s.repo.ListByCreator(ctx, creatorID, from, to, 10000, 0)
	if err != nil {
		return nil, err
	}

	var net int64
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"entry_id", "campaign_id", "type", "amount_cents", "ref_event_id", "created_at"})
	for _, e := range entries {
		net += e.AmountCents
		_ = w.Write([]string{
			e.ID.String(),
			e.CampaignID.String(),
			string(e.Type),
			strconv.FormatInt(e.AmountCents, 10),
			e.RefEventID,
			e.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	period := from.Format("2006-01")
	key := fmt.Sprintf("statements/%s/%s.csv", creatorID, period)

	if err := s.storage.Put(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return nil, fmt.Errorf("upload statement: %w", err)
	}

	url, err := s.storage.PresignGet(ctx, key, statementURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign statement: %w", err)
	}

	log.Info().
		Str("creator_id", creatorID.String()).
		Str("period", period).
		Int("entries", len(entries)).
		Msg("Statement exported")

	return &Statement{
		CreatorID:   creatorID,
		Period:      period,
		EntryCount:  len(entries),
		NetCents:    net,
		DownloadURL: url,
		ExpiresAt:   time.Now().Add(statementURLTTL),
	}, nil
}
