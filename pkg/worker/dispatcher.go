package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

var (
	ErrQueueFull = errors.New("event queue is full")
	ErrStopped   = errors.New("event dispatcher is stopped")
)

type DispatcherConfig struct {
	QueueSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

type envelope struct {
	eventType string
	payload   interface{}
}

// Dispatcher is a messaging.Publisher that queues events and hands them to
// the underlying publisher from one background goroutine, retrying failures.
// Publish never blocks the caller.
type Dispatcher struct {
	next    messaging.Publisher
	queue   chan envelope
	config  DispatcherConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	done    chan struct{}
	once    sync.Once

	// stopped is set under the write lock before the final flush, so no
	// event can enter the queue after it has been drained.
	mu      sync.RWMutex
	stopped bool
}

func NewDispatcher(next messaging.Publisher, config DispatcherConfig, logger *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	return &Dispatcher{
		next:    next,
		queue:   make(chan envelope, config.QueueSize),
		config:  config,
		logger:  logger,
		metrics: m,
		done:    make(chan struct{}),
	}
}

func (d *Dispatcher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.metrics.EventsDispatched.WithLabelValues("dropped").Inc()
		return ErrStopped
	}
	select {
	case d.queue <- envelope{eventType: eventType, payload: payload}:
		return nil
	default:
		d.metrics.EventsDispatched.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Start drains the queue until ctx is cancelled, then refuses new events,
// flushes what is left and closes Done. Cancel ctx only once nothing else
// publishes, i.e. after the HTTP server has shut down.
func (d *Dispatcher) Start(ctx context.Context) {
	defer d.once.Do(func() { close(d.done) })

	d.logger.Info("Starting event dispatcher")
	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.stopped = true
			d.mu.Unlock()

			d.flush()
			d.logger.Info("Shutting down event dispatcher")
			return
		case env := <-d.queue:
			d.dispatch(ctx, env)
		}
	}
}

// Done is closed once Start has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) flush() {
	// the parent context is gone; give the broker a short window
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case env := <-d.queue:
			d.dispatch(ctx, env)
		default:
			return
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, env envelope) {
	err := retry(ctx, d.config.RetryAttempts, d.config.RetryDelay, func() error {
		return d.next.Publish(ctx, env.eventType, env.payload)
	})
	if err != nil {
		d.metrics.EventsDispatched.WithLabelValues("failed").Inc()
		d.logger.Error(err, "Failed to publish event", "event_type", env.eventType)
		return
	}
	d.metrics.EventsDispatched.WithLabelValues("published").Inc()
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(delay):
			}
		}
	}
	return err
}
