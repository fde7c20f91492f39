package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"manicash/internal/amqp"
)

var ErrOutboxFull = errors.New("event outbox is full")

// OutboxConfig holds configuration for the event outbox
type OutboxConfig struct {
	// PollInterval is how often queued events are retried (default: 10s)
	PollInterval time.Duration

	// BatchSize is the max number of events retried per poll cycle (default: 10)
	BatchSize int

	// MaxRetries is the number of attempts before an event is parked as failed (default: 3)
	MaxRetries int

	// Capacity bounds the number of queued events (default: 1000)
	Capacity int
}

// DefaultOutboxConfig returns sensible defaults
func DefaultOutboxConfig() OutboxConfig {
	return OutboxConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    10,
		MaxRetries:   3,
		Capacity:     1000,
	}
}

type outboxItem struct {
	event    *amqp.LedgerEvent
	attempts int
	lastErr  string
}

// OutboxStats is a snapshot of the queue.
type OutboxStats struct {
	Pending int
	Failed  int
}

// Outbox wraps a Publisher. Events that fail to publish are queued in
// memory and retried in the background, so a broker outage does not lose
// them while the process runs.
type Outbox struct {
	next   Publisher
	config OutboxConfig

	mu      sync.Mutex
	pending []outboxItem
	failed  []outboxItem

	// Lifecycle management
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var _ Publisher = (*Outbox)(nil)

func NewOutbox(next Publisher, config OutboxConfig) *Outbox {
	def := DefaultOutboxConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.Capacity <= 0 {
		config.Capacity = def.Capacity
	}
	return &Outbox{next: next, config: config}
}

// Publish sends the event, queueing it for retry when the publisher fails.
// It only returns an error when the queue is full.
func (o *Outbox) Publish(ctx context.Context, event *amqp.LedgerEvent) error {
	err := o.next.Publish(ctx, event)
	if err == nil {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.pending) >= o.config.Capacity {
		return fmt.Errorf("%w: dropping %s: %v", ErrOutboxFull, event.Type, err)
	}
	o.pending = append(o.pending, outboxItem{event: event, attempts: 1, lastErr: err.Error()})
	slog.WarnContext(ctx, "Publish failed, event queued for retry",
		"type", event.Type,
		"pending", len(o.pending),
		"error", err)
	return nil
}

// Start begins the retry loop. Returns an error if already running.
func (o *Outbox) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("event outbox is already running")
	}
	o.running = true
	o.stopCh = make(chan struct{})
	o.doneCh = make(chan struct{})
	o.mu.Unlock()

	go o.runLoop(ctx)

	slog.InfoContext(ctx, "Event outbox started",
		"poll_interval", o.config.PollInterval,
		"batch_size", o.config.BatchSize)
	return nil
}

// Stop stops the retry loop and makes one last attempt to drain the queue.
func (o *Outbox) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	close(o.stopCh)

	select {
	case <-o.doneCh:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Event outbox stop timed out")
		return ctx.Err()
	}

	o.mu.Lock()
	o.running = false
	o.mu.Unlock()

	if n := o.Flush(ctx); n > 0 {
		slog.InfoContext(ctx, "Flushed queued events on shutdown", "published", n)
	}
	slog.InfoContext(ctx, "Event outbox stopped gracefully", "stats", o.Stats())
	return nil
}

// IsRunning returns whether the retry loop is running
func (o *Outbox) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Outbox) runLoop(ctx context.Context) {
	defer close(o.doneCh)

	ticker := time.NewTicker(o.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.processBatch(ctx, o.config.BatchSize)
		}
	}
}

// Flush retries every queued event once and returns how many were
// published.
func (o *Outbox) Flush(ctx context.Context) int {
	o.mu.Lock()
	n := len(o.pending)
	o.mu.Unlock()
	return o.processBatch(ctx, n)
}

func (o *Outbox) processBatch(ctx context.Context, limit int) int {
	o.mu.Lock()
	if limit > len(o.pending) {
		limit = len(o.pending)
	}
	batch := append([]outboxItem(nil), o.pending[:limit]...)
	o.pending = o.pending[limit:]
	o.mu.Unlock()

	published := 0
	for i, item := range batch {
		if ctx.Err() != nil {
			o.requeue(batch[i:])
			return published
		}
		if err := o.next.Publish(ctx, item.event); err != nil {
			o.handleFailure(ctx, item, err)
			continue
		}
		published++
	}
	return published
}

func (o *Outbox) handleFailure(ctx context.Context, item outboxItem, err error) {
	item.attempts++
	item.lastErr = err.Error()

	o.mu.Lock()
	defer o.mu.Unlock()
	if item.attempts >= o.config.MaxRetries {
		o.failed = append(o.failed, item)
		slog.ErrorContext(ctx, "Event failed permanently after max retries",
			"type", item.event.Type,
			"attempts", item.attempts,
			"error", err)
		return
	}
	o.pending = append(o.pending, item)
}

func (o *Outbox) requeue(items []outboxItem) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(items, o.pending...)
}

// Stats returns current queue statistics
func (o *Outbox) Stats() OutboxStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OutboxStats{Pending: len(o.pending), Failed: len(o.failed)}
}

// RetryFailed moves every parked event back to the queue.
func (o *Outbox) RetryFailed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.failed)
	for _, item := range o.failed {
		item.attempts = 0
		o.pending = append(o.pending, item)
	}
	o.failed = nil
	return n
}
