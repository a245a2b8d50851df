package ingestion

import (
	"context"
	"log"
	"time"

	"whalewire/internal/domain"
)

// Runner drives the coordinator on a fixed cadence.
type Runner struct {
	coordinator *Coordinator
	interval    time.Duration
	onCycle     func(result *domain.IngestionResult)
	logger      *log.Logger
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Coordinator *Coordinator
	Interval    time.Duration // Default: 30s
	OnCycle     func(result *domain.IngestionResult)
	Logger      *log.Logger
}

// NewRunner creates a new ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval == 0 {
		interval = 30 * time.Second
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		coordinator: opts.Coordinator,
		interval:    interval,
		onCycle:     opts.OnCycle,
		logger:      logger,
	}
}

func (r *Runner) runCycle(ctx context.Context) error {
	result, err := r.coordinator.RunCycle(ctx)
	if err != nil {
		return err
	}
	if r.onCycle != nil {
		r.onCycle(result)
	}
	return nil
}

// Run starts the ingestion loop. The first cycle runs immediately; cycle
// errors are logged, not fatal. Blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Starting ingestion runner, interval: %v", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.runCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Printf("Ingestion cycle failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Ingestion runner stopping...")
			return ctx.Err()
		case <-ticker.C:
			if err := r.runCycle(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Printf("Ingestion cycle failed: %v", err)
			}
		}
	}
}
