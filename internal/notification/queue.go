package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/core/workerpool"
)

type mailJob struct {
	Message Message
	Retries int
}

// Queue sends mail on a worker pool and retries failed sends after a delay.
type Queue struct {
	sender     Sender
	pool       *workerpool.Pool[mailJob]
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

func NewQueue(sender Sender, cfg internal.MailConfig, logger *slog.Logger) *Queue {
	q := &Queue{
		sender:     sender,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		timeout:    30 * time.Second,
		logger:     logger,
	}
	if q.maxRetries < 0 {
		q.maxRetries = 0
	}
	if q.backoff <= 0 {
		q.backoff = time.Second
	}
	q.pool = workerpool.New("mail", workerpool.Config{MaxWorkers: cfg.MaxWorkers, JobQueueSize: cfg.QueueSize}, q.process, logger)
	return q
}

func (q *Queue) Start() {
	q.pool.Start()
}

// Enqueue accepts msg for delivery. It fails only when the queue is full or stopped.
func (q *Queue) Enqueue(msg Message) error {
	if err := q.pool.Submit(mailJob{Message: msg}); err != nil {
		q.logger.Error("failed to enqueue mail", "to", msg.To, "error", err)
		return err
	}
	q.logger.Debug("mail queued", "to", msg.To, "queue_length", q.pool.QueueLength())
	return nil
}

// QueueLength is the number of messages waiting for a worker.
func (q *Queue) QueueLength() int {
	return q.pool.QueueLength()
}

// Shutdown drains the queue until ctx is done. Mail still waiting after that is dropped.
func (q *Queue) Shutdown(ctx context.Context) {
	q.pool.Shutdown(ctx)
	for _, job := range q.pool.Unprocessed() {
		q.logger.Warn("mail dropped at shutdown", "to", job.Message.To, "subject", job.Message.Subject)
	}
}

func (q *Queue) process(ctx context.Context, job mailJob) {
	sendCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	err := q.sender.Send(sendCtx, job.Message)
	if err == nil {
		q.logger.Info("mail sent", "to", job.Message.To, "subject", job.Message.Subject)
		return
	}

	if job.Retries >= q.maxRetries {
		q.logger.Error("mail delivery failed, giving up",
			"to", job.Message.To,
			"retries", job.Retries,
			"error", err)
		return
	}

	job.Retries++
	q.logger.Warn("mail delivery failed, retrying",
		"to", job.Message.To,
		"retry", job.Retries,
		"backoff", q.backoff,
		"error", err)
	q.pool.SubmitAfter(q.backoff, job)
}
