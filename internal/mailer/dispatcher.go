package mailer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull        = errors.New("mail queue is full")
	ErrDispatcherClosed = errors.New("mail dispatcher is closed")
)

// Dispatcher is an asynchronous Sender. Send only enqueues; a fixed pool of
// workers delivers through the wrapped Sender and logs failures.
type Dispatcher struct {
	next Sender
	jobs chan Message
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewDispatcher(next Sender, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		next:   next,
		jobs:   make(chan Message, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	d.wg.Add(workers)
	for range workers {
		go d.work()
	}
	return d
}

// Send never blocks. The caller's context is not propagated to the worker
// because request contexts end before delivery does.
func (d *Dispatcher) Send(_ context.Context, msg Message) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for the queue to drain. When ctx
// expires first, in-flight deliveries are cancelled and ctx.Err is returned.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.jobs {
		if err := d.next.Send(d.ctx, msg); err != nil {
			slog.Error("mail delivery failed",
				"action", "mail_send",
				"subject", msg.Subject,
				"error", err,
			)
		}
	}
}
