package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/poiesic/spelite/semantic"

// Bridge is the caller side of a worker. Calls are safe for concurrent
// use; replies are matched to calls by request ID.
type Bridge struct {
	transport Transport
	logger    *slog.Logger
	tracer    trace.Tracer

	mu       sync.Mutex
	pending  map[string]chan Message
	progress ProgressFunc

	ready    atomic.Bool
	initOnce singleflight.Group

	done chan struct{}
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge) error

// WithBridgeLogger sets a custom logger.
// Default is slog.Default().
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithProgressCallback registers the progress callback at construction.
func WithProgressCallback(fn ProgressFunc) BridgeOption {
	return func(b *Bridge) error {
		b.progress = fn
		return nil
	}
}

// NewBridge starts dispatching the transport's messages.
func NewBridge(transport Transport, opts ...BridgeOption) (*Bridge, error) {
	if transport == nil {
		return nil, fmt.Errorf("semantic: transport is required")
	}
	b := &Bridge{
		transport: transport,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		pending:   make(map[string]chan Message),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "semantic-bridge")
	go b.dispatch()
	return b, nil
}

// dispatch routes worker messages until the transport closes.
func (b *Bridge) dispatch() {
	defer close(b.done)

	for m := range b.transport.Messages() {
		if m.Type == MessageProgress {
			if m.Progress != nil {
				b.notify(*m.Progress)
			}
			continue
		}

		b.mu.Lock()
		ch, ok := b.pending[m.ID]
		delete(b.pending, m.ID)
		b.mu.Unlock()

		if !ok {
			b.logger.Warn("discarding reply for unknown request", "id", m.ID, "type", m.Type)
			continue
		}
		ch <- m
	}

	b.logger.Debug("worker channel closed")
}

func (b *Bridge) notify(p Progress) {
	b.mu.Lock()
	fn := b.progress
	b.mu.Unlock()
	if fn != nil {
		fn(p)
	}
}

// SetProgressCallback replaces the progress callback. nil disables it.
func (b *Bridge) SetProgressCallback(fn ProgressFunc) {
	b.mu.Lock()
	b.progress = fn
	b.mu.Unlock()
}

// Ready reports whether the model finished loading.
func (b *Bridge) Ready() bool {
	return b.ready.Load()
}

// call sends one request and waits for its terminal message.
func (b *Bridge) call(ctx context.Context, req Request) (Message, error) {
	req.ID = uuid.New().String()
	ch := make(chan Message, 1)

	b.mu.Lock()
	b.pending[req.ID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, req.ID)
		b.mu.Unlock()
	}()

	if err := b.transport.Send(ctx, req); err != nil {
		return Message{}, err
	}

	select {
	case m := <-ch:
		return checkReply(m)
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-b.done:
		// a reply may have raced the shutdown
		select {
		case m := <-ch:
			return checkReply(m)
		default:
			return Message{}, ErrWorkerTerminated
		}
	}
}

func checkReply(m Message) (Message, error) {
	if m.Type == MessageError {
		return m, fmt.Errorf("%w: %s", ErrWorkerFailed, m.Error)
	}
	return m, nil
}

// InitModel loads the model. Concurrent callers share one load and
// later calls return immediately.
func (b *Bridge) InitModel(ctx context.Context) (bool, error) {
	if b.ready.Load() {
		return true, nil
	}

	v, err, _ := b.initOnce.Do("init", func() (any, error) {
		ctx, span := b.tracer.Start(ctx, "semantic.InitModel")
		defer span.End()

		m, err := b.call(ctx, Request{Type: RequestInit})
		if err != nil {
			recordError(span, err)
			return false, err
		}
		if m.Ready {
			b.ready.Store(true)
		}
		return m.Ready, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Search ranks documents against the query, best first.
func (b *Bridge) Search(ctx context.Context, query string, documents []string) ([]Result, error) {
	ctx, span := b.tracer.Start(ctx, "semantic.Search", trace.WithAttributes(
		attribute.Int("documents", len(documents)),
	))
	defer span.End()

	m, err := b.call(ctx, Request{Type: RequestSearch, Query: query, Documents: documents})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if m.Type != MessageSuccess {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedReply, m.Type)
	}
	return m.Results, nil
}

// Index precomputes vectors for documents.
func (b *Bridge) Index(ctx context.Context, documents []string) error {
	ctx, span := b.tracer.Start(ctx, "semantic.Index", trace.WithAttributes(
		attribute.Int("documents", len(documents)),
	))
	defer span.End()

	m, err := b.call(ctx, Request{Type: RequestIndex, Documents: documents})
	if err != nil {
		recordError(span, err)
		return err
	}
	if m.Type != MessageSuccess {
		return fmt.Errorf("%w: %s", ErrUnexpectedReply, m.Type)
	}
	return nil
}

// Ping checks that the worker is alive.
func (b *Bridge) Ping(ctx context.Context) error {
	m, err := b.call(ctx, Request{Type: RequestPing})
	if err != nil {
		return err
	}
	if m.Type != MessagePong {
		return fmt.Errorf("%w: %s", ErrUnexpectedReply, m.Type)
	}
	return nil
}

// Close stops the worker and waits for dispatch to finish. Outstanding
// calls fail with ErrWorkerTerminated.
func (b *Bridge) Close() error {
	err := b.transport.Close()
	<-b.done
	return err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
