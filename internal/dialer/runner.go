package dialer

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/core/workerpool"
)

// Runner dials scheduled calls once they are due.
type Runner struct {
	service     *Service
	store       Store
	pool        *workerpool.Pool[*campaign.ScheduledCall]
	interval    time.Duration
	batchSize   int
	maxAttempts int
	logger      *slog.Logger
	now         func() time.Time
}

func NewRunner(service *Service, store Store, cfg internal.DialerConfig, logger *slog.Logger) *Runner {
	r := &Runner{
		service:     service,
		store:       store,
		interval:    cfg.PollInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		logger:      logger.With("component", "dialer_runner"),
		now:         time.Now,
	}
	if r.interval <= 0 {
		r.interval = 30 * time.Second
	}
	if r.batchSize <= 0 {
		r.batchSize = 20
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = 3
	}
	r.pool = workerpool.New("scheduled_calls", workerpool.Config{
		MaxWorkers:   cfg.MaxWorkers,
		JobQueueSize: cfg.JobQueueSize,
	}, r.process, logger)
	return r
}

func (r *Runner) process(ctx context.Context, sc *campaign.ScheduledCall) {
	if err := r.service.DialScheduled(ctx, sc, r.maxAttempts); err != nil {
		r.logger.Error("failed to record scheduled call outcome", "scheduled_call_id", sc.ID, "error", err)
	}
}

// Tick claims due calls and queues them. It returns how many were queued.
func (r *Runner) Tick(ctx context.Context) int {
	calls, err := r.store.DueCalls(ctx, r.now().UTC(), r.batchSize)
	if err != nil {
		r.logger.Error("failed to load due calls", "error", err)
		return 0
	}

	queued := 0
	for _, sc := range calls {
		if err := r.pool.SubmitWait(ctx, sc); err != nil {
			r.logger.Warn("could not queue scheduled call", "scheduled_call_id", sc.ID, "error", err)
			r.release(ctx, sc, err.Error())
			continue
		}
		queued++
	}
	if queued > 0 {
		r.logger.Info("scheduled calls queued", "count", queued)
	}
	return queued
}

// release hands a claimed call that was never dialed back to PENDING without spending an attempt.
func (r *Runner) release(ctx context.Context, sc *campaign.ScheduledCall, reason string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeTimeout)
	defer cancel()
	if err := r.store.RetryScheduled(writeCtx, sc.ID, sc.Attempts, reason, false); err != nil {
		r.logger.Error("failed to release scheduled call", "scheduled_call_id", sc.ID, "error", err)
	}
}

// Run polls until ctx is done, then drains in-flight calls for up to grace.
func (r *Runner) Run(ctx context.Context, grace time.Duration) {
	r.pool.Start()
	r.logger.Info("dialer runner started", "interval", r.interval, "batch_size", r.batchSize, "max_attempts", r.maxAttempts)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
			defer cancel()
			r.pool.Shutdown(shutdownCtx)
			left := r.pool.Unprocessed()
			for _, sc := range left {
				r.release(ctx, sc, "runner stopped before dialing")
			}
			r.logger.Info("dialer runner stopped", "released", len(left))
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}
