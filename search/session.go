package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/spelite/core"
)

const defaultDebounce = 300 * time.Millisecond

// Searcher is what a Session drives. *Engine implements it.
type Searcher interface {
	Search(ctx context.Context, p Params) ([]*core.Spell, error)
}

var _ Searcher = (*Engine)(nil)

// Result is the outcome of one session request.
type Result struct {
	Seq    uint64
	Params Params
	Spells []*core.Spell
	Err    error
}

// Session is a debounced search front for interactive input. Every Submit
// gets a sequence number; only the result of the latest one is published,
// so a slow earlier search never replaces a newer result.
type Session struct {
	searcher Searcher
	debounce time.Duration
	onResult func(Result)
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	pending *Params
	latest  *Result
	closed  bool

	running sync.WaitGroup
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDebounce sets the quiet period before a search is issued.
// Zero issues every search immediately. Default is 300ms.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d < 0 {
			d = 0
		}
		s.debounce = d
	}
}

// OnResult registers a callback for published results. It is called
// from the search goroutine, one result at a time.
func OnResult(fn func(Result)) SessionOption {
	return func(s *Session) {
		s.onResult = fn
	}
}

// WithSessionLogger sets a custom logger.
// Default is slog.Default().
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session over searcher.
func NewSession(searcher Searcher, opts ...SessionOption) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		searcher: searcher,
		debounce: defaultDebounce,
		logger:   slog.Default(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "search-session")
	return s
}

// Submit schedules a search and returns its sequence number. A search
// still waiting out the debounce is replaced.
func (s *Session) Submit(p Params) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}

	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	if s.debounce == 0 {
		s.pending = nil
		s.start(seq, p)
		return seq, nil
	}

	s.pending = &p
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(seq) })
	return seq, nil
}

// Flush issues the debounced search now, if one is waiting.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || s.pending == nil || s.closed {
		return
	}
	if s.timer.Stop() {
		s.launchPending(s.seq)
	}
}

func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq || s.pending == nil {
		return
	}
	s.launchPending(seq)
}

// launchPending must be called with mu held.
func (s *Session) launchPending(seq uint64) {
	p := *s.pending
	s.pending = nil
	s.timer = nil
	s.start(seq, p)
}

// start must be called with mu held.
func (s *Session) start(seq uint64, p Params) {
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		spells, err := s.searcher.Search(s.ctx, p)
		s.publish(Result{Seq: seq, Params: p, Spells: spells, Err: err})
	}()
}

func (s *Session) publish(r Result) {
	s.mu.Lock()
	if r.Seq != s.seq {
		s.mu.Unlock()
		s.logger.Debug("discarding stale result", "seq", r.Seq, "latest", s.seq)
		return
	}
	s.latest = &r
	fn := s.onResult
	s.mu.Unlock()

	if fn != nil {
		fn(r)
	}
}

// Latest returns the most recent published result.
func (s *Session) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

// Close drops any pending search, cancels running ones and waits for them.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.mu.Unlock()

	s.cancel()
	s.running.Wait()
}
