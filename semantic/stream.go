package semantic

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
)

// maxLineSize bounds one JSON line. Search replies carry every document.
const maxLineSize = 64 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64<<10), maxLineSize)
	return s
}

// StreamTransport speaks newline-delimited JSON to a worker on the other
// end of a pipe pair.
type StreamTransport struct {
	w        io.Writer
	writeMu  sync.Mutex
	messages chan Message
	done     chan struct{}
	once     sync.Once
	onClose  func() error
	closeErr error
	logger   *slog.Logger
}

var _ Transport = (*StreamTransport)(nil)

// NewStreamTransport reads messages from r and writes requests to w.
// onClose, if set, runs once on Close (closing pipes, reaping a process).
func NewStreamTransport(r io.Reader, w io.Writer, onClose func() error) *StreamTransport {
	t := &StreamTransport{
		w:        w,
		messages: make(chan Message, 64),
		done:     make(chan struct{}),
		onClose:  onClose,
		logger:   slog.Default().With("component", "semantic-stream"),
	}
	go t.read(r)
	return t
}

func (t *StreamTransport) read(r io.Reader) {
	defer close(t.messages)
	defer t.markDone()

	scanner := newScanner(r)
	for scanner.Scan() {
		var m Message
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.logger.Warn("discarding malformed worker message", "err", err)
			continue
		}
		t.messages <- m
	}
	if err := scanner.Err(); err != nil {
		t.logger.Warn("worker stream failed", "err", err)
	}
}

func (t *StreamTransport) markDone() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

// Send implements Transport.
func (t *StreamTransport) Send(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-t.done:
		return ErrWorkerTerminated
	default:
	}

	line, err := json.Marshal(req)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if _, err := t.w.Write(line); err != nil {
		return fmt.Errorf("%w: %w", ErrWorkerTerminated, err)
	}
	return nil
}

// Messages implements Transport.
func (t *StreamTransport) Messages() <-chan Message {
	return t.messages
}

// Close runs the close hook once.
func (t *StreamTransport) Close() error {
	t.once.Do(func() {
		if t.onClose != nil {
			t.closeErr = t.onClose()
		}
	})
	return t.closeErr
}

// NewProcessTransport starts a worker process, typically "spelite worker",
// and talks to it over its stdin and stdout. The worker's stderr is
// inherited.
func NewProcessTransport(ctx context.Context, name string, args ...string) (*StreamTransport, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker: %w", err)
	}

	return NewStreamTransport(stdout, stdin, func() error {
		// closing stdin ends the worker's Serve loop
		stdin.Close()
		err := cmd.Wait()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && !exitErr.Exited() {
			// killed by context cancellation
			return nil
		}
		return err
	}), nil
}

// Serve runs the worker side of a stream: it reads JSON-line requests from
// r and writes messages to w until r is exhausted or ctx is done.
// Requests are handled one at a time.
func Serve(ctx context.Context, worker *Worker, r io.Reader, w io.Writer) error {
	logger := slog.Default().With("component", "semantic-serve")
	enc := json.NewEncoder(w)
	var writeErr error
	send := func(m Message) {
		if writeErr != nil {
			return
		}
		writeErr = enc.Encode(m)
	}

	scanner := newScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			logger.Warn("discarding malformed request", "err", err)
			continue
		}
		worker.Handle(ctx, req, send)
		if writeErr != nil {
			return fmt.Errorf("write reply: %w", writeErr)
		}
	}
	return scanner.Err()
}
