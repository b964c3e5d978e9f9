package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one delivered payload. A non-nil error triggers a retry.
type Handler func(payload any) error

// Publisher is the outbound side the services depend on.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Queue is a Publisher that also delivers to in-process subscribers.
type Queue interface {
	Publisher
	Subscribe(topic string, handler Handler) error
}

var ErrQueueClosed = errors.New("queue closed")

// InMemoryQueue fans each published payload out to the topic's subscribers,
// one goroutine per handler, retrying failures with linear backoff.
type InMemoryQueue struct {
	Logger     *zap.Logger
	MaxRetries int
	Backoff    time.Duration

	mu        sync.Mutex
	handlers  map[string][]Handler
	wg        sync.WaitGroup
	closed    chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a queue with 3 retries and a 500ms backoff step.
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueue{
		Logger:     logger,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		handlers:   make(map[string][]Handler),
		closed:     make(chan struct{}),
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}

	handlers := q.handlers[topic]
	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go q.processJob(handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler Handler, job JobPayload) {
	defer q.wg.Done()

	for {
		err := handler(job.Payload)
		if err == nil {
			q.Logger.Debug("Job processed", zap.String("topic", job.Topic), zap.Int("retries", job.RetryCount))
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			q.Logger.Error("Job permanently failed",
				zap.String("topic", job.Topic),
				zap.Int("attempts", job.RetryCount),
				zap.Error(err))
			return
		}
		q.Logger.Warn("Job failed, retrying",
			zap.String("topic", job.Topic),
			zap.Int("attempt", job.RetryCount),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err))

		timer := time.NewTimer(time.Duration(job.RetryCount) * q.Backoff)
		select {
		case <-timer.C:
		case <-q.closed:
			timer.Stop()
			q.Logger.Warn("Job dropped on shutdown", zap.String("topic", job.Topic), zap.Int("attempts", job.RetryCount))
			return
		}
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler Handler) error {
	if handler == nil {
		return errors.New("nil handler")
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close stops accepting payloads, cuts pending backoffs short and waits for
// running handlers to return.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		close(q.closed)
		q.mu.Unlock()
	})
	q.wg.Wait()
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
