package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Destination is an export target (S3, Google Sheets).
type Destination interface {
	Name() string
	Write(ctx context.Context, snap *Snapshot) error
}

// Run takes one snapshot and writes it to every destination. A failing
// destination does not stop the others; the first error is returned.
func Run(ctx context.Context, src Source, destinations []Destination, logger *slog.Logger) error {
	snap, err := Collect(ctx, src)
	if err != nil {
		return err
	}

	var firstErr error
	for _, dest := range destinations {
		if err := dest.Write(ctx, snap); err != nil {
			logger.Error("export destination write failed", "destination", dest.Name(), "err", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", dest.Name(), err)
			}
		}
	}

	logger.Info("export completed", "destinations", len(destinations), "hackathons", len(snap.Views))
	return firstErr
}

// Scheduler runs periodic exports to one or more destinations.
type Scheduler struct {
	src          Source
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from src to the given
// destinations at the given interval.
func NewScheduler(src Source, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		src:          src,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start begins periodic export. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.exportOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.exportOnce(ctx)
		}
	}
}

func (s *Scheduler) exportOnce(ctx context.Context) {
	if err := Run(ctx, s.src, s.destinations, s.logger); err != nil && ctx.Err() == nil {
		s.logger.Error("export failed", "err", err)
	}
}
