package payout

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker runs the scheduled release sweep
type Worker struct {
	service   *Service
	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
}

// NewWorker creates a new payout release worker
func NewWorker(service *Service, interval time.Duration, batchSize int) *Worker {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &Worker{
		service:   service,
		interval:  interval,
		batchSize: batchSize,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background worker
func (w *Worker) Start() {
	log.Info().Msg("Starting payout release worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping payout release worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.sweep()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	count, err := w.service.ReleaseEligible(ctx, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Payout release sweep failed")
		return
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("Released eligible payouts")
	}
}
