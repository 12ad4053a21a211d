package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store persists notifications. The inbox repository implements it.
type Store interface {
	Create(ctx context.Context, n *Notification) error
}

// Dispatcher delivers notifications off the request path. Delivery is best
// effort: a full queue drops the notification and failures are only logged.
type Dispatcher struct {
	store     Store
	publisher Publisher
	logger    zerolog.Logger
	workers   int
	timeout   time.Duration

	queue  chan *Notification
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan *Notification, n)
		}
	}
}

// WithPublisher also sends every persisted notification to p.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithDeliveryTimeout bounds the store write and publish of one notification.
func WithDeliveryTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func NewDispatcher(store Store, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:   store,
		logger:  logger.With().Str("component", "notification-dispatcher").Logger(),
		workers: 2,
		timeout: 10 * time.Second,
		queue:   make(chan *Notification, 256),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers. Call it once.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.logger.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("notification dispatcher started")
}

// Enqueue schedules n for delivery without blocking. It reports whether n
// was accepted.
func (d *Dispatcher) Enqueue(n *Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn().Str("user_id", n.UserID).Msg("dispatcher stopped, notification dropped")
		return false
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	select {
	case d.queue <- n:
		return true
	default:
		d.logger.Warn().
			Str("user_id", n.UserID).
			Str("type", string(n.Type)).
			Int("related_id", n.RelatedID).
			Msg("notification queue full, notification dropped")
		return false
	}
}

// Shutdown stops accepting notifications and waits for the queue to drain
// or ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		d.logger.Warn().Int("pending", len(d.queue)).Msg("notification queue not drained before shutdown")
	}

	if d.publisher != nil {
		if cerr := d.publisher.Close(); cerr != nil {
			d.logger.Error().Err(cerr).Msg("close notification publisher")
		}
	}
	return err
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n *Notification) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("user_id", n.UserID).Msg("notification delivery panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.store.Create(ctx, n); err != nil {
		d.logger.Error().Err(err).
			Str("user_id", n.UserID).
			Str("type", string(n.Type)).
			Int("related_id", n.RelatedID).
			Msg("failed to store notification")
		return
	}

	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, n); err != nil {
		evt := d.logger.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			evt = d.logger.Warn()
		}
		evt.Err(err).Int("notification_id", n.ID).Msg("failed to publish notification")
	}
}
