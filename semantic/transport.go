package semantic

import (
	"context"
	"runtime"
	"sync"
)

// Transport carries requests to a worker and its messages back.
type Transport interface {
	// Send delivers a request. It fails with ErrWorkerTerminated once the
	// worker is gone.
	Send(ctx context.Context, req Request) error

	// Messages yields every message from the worker. The channel is closed
	// when the worker terminates.
	Messages() <-chan Message

	// Close stops the worker.
	Close() error
}

// LocalTransport runs a worker on a dedicated, locked OS thread in this
// process. Requests are served one at a time in arrival order.
type LocalTransport struct {
	requests chan Request
	messages chan Message
	done     chan struct{}
	stopped  chan struct{}
	once     sync.Once
	cancel   context.CancelFunc
}

var _ Transport = (*LocalTransport)(nil)

// NewLocalTransport starts the worker loop.
func NewLocalTransport(worker *Worker) *LocalTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &LocalTransport{
		requests: make(chan Request),
		messages: make(chan Message, 64),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		cancel:   cancel,
	}
	go t.loop(ctx, worker)
	return t
}

func (t *LocalTransport) loop(ctx context.Context, worker *Worker) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.stopped)
	defer close(t.messages)

	send := func(m Message) {
		select {
		case t.messages <- m:
		case <-t.done:
		}
	}
	for {
		select {
		case <-t.done:
			return
		case req := <-t.requests:
			worker.Handle(ctx, req, send)
		}
	}
}

// Send implements Transport.
func (t *LocalTransport) Send(ctx context.Context, req Request) error {
	select {
	case t.requests <- req:
		return nil
	case <-t.done:
		return ErrWorkerTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages implements Transport.
func (t *LocalTransport) Messages() <-chan Message {
	return t.messages
}

// Close stops the loop, aborting the request in progress.
func (t *LocalTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.cancel()
	})
	<-t.stopped
	return nil
}
