package notify

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmaazkhanhere/learnpath/internal/event"
	pkgkafka "github.com/mmaazkhanhere/learnpath/pkg/kafka"
)

// Topics lists the topics the notifier subscribes to.
func Topics() []string {
	return []string{event.TopicUserRegistered, event.TopicUserRoleChanged}
}

// WorkerConfig configures the consumers. Store dedupes redelivered events;
// DLQ receives events that keep failing and may be nil.
type WorkerConfig struct {
	Brokers []string
	GroupID string
	Store   pkgkafka.IdempotencyStore
	DLQ     pkgkafka.DeadLetterPublisher
}

// Runner is satisfied by *pkgkafka.Consumer.
type Runner interface {
	Start(ctx context.Context) error
	Close() error
}

// Worker runs one consumer per topic.
type Worker struct {
	consumers []Runner
	logger    *slog.Logger
}

// NewWorker creates consumers for every topic in Topics.
func NewWorker(cfg WorkerConfig, n *Notifier, logger *slog.Logger) *Worker {
	handler := pkgkafka.IdempotentHandler(cfg.Store, n.Handle, logger)

	consumers := make([]Runner, 0, len(Topics()))
	for _, topic := range Topics() {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
			DLQ:      cfg.DLQ,
		}, handler, logger))
	}
	return &Worker{consumers: consumers, logger: logger}
}

// Run blocks until ctx is canceled or a consumer fails.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, c := range w.consumers {
		g.Go(func() error { return c.Start(ctx) })
	}
	return g.Wait()
}

// Close closes every consumer and returns the first error.
func (w *Worker) Close() error {
	var first error
	for _, c := range w.consumers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
