package scoring

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Worker periodically recomputes trust scores for creators with recent traffic
type Worker struct {
	service   *Service
	interval  time.Duration
	batchSize int
	stopCh    chan struct{}
}

// NewWorker creates a new trust score worker
func NewWorker(service *Service, interval time.Duration, batchSize int) *Worker {
	if interval == 0 {
		interval = 1 * time.Hour
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
	log.Info().Msg("Starting trust score worker...")
	go w.loop()
}

// Stop gracefully stops the background worker
func (w *Worker) Stop() {
	log.Info().Msg("Stopping trust score worker...")
	close(w.stopCh)
}

func (w *Worker) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on startup
	w.recompute()

	for {
		select {
		case <-ticker.C:
			w.recompute()
		case <-w.stopCh:
			return
		}
	}
}

func (w *Worker) recompute() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	count, err := w.service.RecomputeAll(ctx, w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Trust score sweep failed")
		return
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("Recomputed trust scores")
	}
}
