// Package stream implements the asynchronous byte-stream adapters that
// sit between the raw transport and application code: a bounded, backpressured
// reader (spec.md §4.H) and an IAC-escaping writer (spec.md §4.I).
package stream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// ErrAlreadyReading is returned when a second read-family call is made
// while one is already outstanding (spec §4.H: "at most one read-family
// call may be outstanding").
var ErrAlreadyReading = errors.New("stream: a read is already in progress")

// ErrLimitOverrun is returned by ReadUntil/ReadUntilPattern when the
// buffered data exceeds the soft limit before a separator is found.
type ErrLimitOverrun struct {
	Consumed int
}

func (e *ErrLimitOverrun) Error() string {
	return fmt.Sprintf("stream: separator not found within %d buffered bytes", e.Consumed)
}

// ErrIncompleteRead is returned when EOF arrives before the requested
// amount of data. Partial holds whatever was read before EOF.
type ErrIncompleteRead struct {
	Partial []byte
}

func (e *ErrIncompleteRead) Error() string {
	return fmt.Sprintf("stream: EOF with %d bytes read", len(e.Partial))
}

// PauseResumer lets a Reader tell its owner to stop or resume feeding it
// data, implementing the backpressure rule of spec §4.H / §5: pause above
// 2x the soft limit, resume once back under it.
type PauseResumer interface {
	Pause()
	Resume()
}

type noopPauseResumer struct{}

func (noopPauseResumer) Pause()  {}
func (noopPauseResumer) Resume() {}

// Reader is a bounded, push-fed byte buffer. The IAC interpreter calls
// Feed with in-band application bytes as they're parsed off the wire;
// application code calls the Read family to consume them.
type Reader struct {
	mu     sync.Mutex
	notify chan struct{}

	buf    []byte
	limit  int
	paused bool
	eof    bool
	eofErr error
	closed bool

	outstanding bool
	pr          PauseResumer
}

// NewReader creates a Reader with the given soft limit. A nil pr disables
// backpressure signalling (tests and embedders that don't own a
// transport-level pause/resume may pass nil).
func NewReader(limit int, pr PauseResumer) *Reader {
	if pr == nil {
		pr = noopPauseResumer{}
	}
	return &Reader{limit: limit, pr: pr, notify: make(chan struct{})}
}

// wake broadcasts to every goroutine currently blocked in a wait, per the
// close-and-replace channel idiom. Caller must hold mu.
func (r *Reader) wake() {
	close(r.notify)
	r.notify = make(chan struct{})
}

// Feed appends data to the buffer, waking any blocked reader and pausing
// the transport if the buffer has grown to 2x the soft limit.
func (r *Reader) Feed(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("stream: reader is closed")
	}
	r.buf = append(r.buf, data...)
	r.wake()
	if !r.paused && r.limit > 0 && len(r.buf) >= 2*r.limit {
		r.paused = true
		r.pr.Pause()
	}
	return nil
}

// SetEOF marks the stream as ended, with err as the reason (nil for a
// clean EOF). Any further Feed calls after SetEOF are a caller bug but are
// tolerated by simply appending.
func (r *Reader) SetEOF(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eof {
		return
	}
	r.eof = true
	r.eofErr = err
	r.wake()
}

// Close tears the reader down; subsequent Feed calls fail.
func (r *Reader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.wake()
}

func (r *Reader) beginRead() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outstanding {
		return ErrAlreadyReading
	}
	r.outstanding = true
	return nil
}

func (r *Reader) endRead() {
	r.mu.Lock()
	r.outstanding = false
	r.mu.Unlock()
}

// maybeResumeLocked unpauses the transport once the buffer drops back under the
// soft limit. Caller must hold mu.
func (r *Reader) maybeResumeLocked() {
	if r.paused && r.limit > 0 && len(r.buf) < r.limit {
		r.paused = false
		r.pr.Resume()
	}
}

// wait blocks until cond() is true, EOF is reached, or ctx is done.
func (r *Reader) wait(ctx context.Context, cond func() bool) error {
	for {
		r.mu.Lock()
		if cond() {
			r.mu.Unlock()
			return nil
		}
		if r.eof {
			r.mu.Unlock()
			return nil
		}
		ch := r.notify
		r.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Read returns up to n bytes. n==0 returns nil immediately. n<0 blocks
// until EOF and returns everything accumulated. n>0 blocks until at least
// one byte is available (or EOF) and returns up to n bytes — it does not
// wait to fill the full request.
func (r *Reader) Read(ctx context.Context, n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if err := r.beginRead(); err != nil {
		return nil, err
	}
	defer r.endRead()

	if n < 0 {
		if err := r.wait(ctx, func() bool { return false }); err != nil {
			return nil, err
		}
		r.mu.Lock()
		out := r.buf
		r.buf = nil
		r.maybeResumeLocked()
		eofErr := r.eofErr
		r.mu.Unlock()
		return out, eofErr
	}

	if err := r.wait(ctx, func() bool { return len(r.buf) > 0 }); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	take := n
	if take > len(r.buf) {
		take = len(r.buf)
	}
	out := append([]byte(nil), r.buf[:take]...)
	r.buf = r.buf[take:]
	r.maybeResumeLocked()
	if take == 0 {
		return nil, r.eofErr
	}
	return out, nil
}

// ReadExactly blocks until exactly n bytes are available or EOF. On EOF
// before n bytes arrive, it returns ErrIncompleteRead wrapping whatever was
// read.
func (r *Reader) ReadExactly(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if err := r.beginRead(); err != nil {
		return nil, err
	}
	defer r.endRead()

	if err := r.wait(ctx, func() bool { return len(r.buf) >= n }); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buf) < n {
		partial := append([]byte(nil), r.buf...)
		r.buf = nil
		r.maybeResumeLocked()
		return partial, &ErrIncompleteRead{Partial: partial}
	}
	out := append([]byte(nil), r.buf[:n]...)
	r.buf = r.buf[n:]
	r.maybeResumeLocked()
	return out, nil
}

// ReadUntil blocks until sep appears in the buffer (inclusive), the soft
// limit is exceeded without finding it, or EOF.
func (r *Reader) ReadUntil(ctx context.Context, sep []byte) ([]byte, error) {
	return r.readUntilIndex(ctx, func(buf []byte) int {
		idx := bytes.Index(buf, sep)
		if idx < 0 {
			return -1
		}
		return idx + len(sep)
	})
}

// ReadUntilPattern blocks until re matches within the buffer, the soft
// limit is exceeded without a match, or EOF. re should be compiled with
// regexp.CompilePOSIX for spec §4.H's "longest match" semantics.
func (r *Reader) ReadUntilPattern(ctx context.Context, re *regexp.Regexp) ([]byte, error) {
	return r.readUntilIndex(ctx, func(buf []byte) int {
		loc := re.FindIndex(buf)
		if loc == nil {
			return -1
		}
		return loc[1]
	})
}

func (r *Reader) readUntilIndex(ctx context.Context, find func([]byte) int) ([]byte, error) {
	if err := r.beginRead(); err != nil {
		return nil, err
	}
	defer r.endRead()

	for {
		r.mu.Lock()
		end := find(r.buf)
		if end >= 0 {
			out := append([]byte(nil), r.buf[:end]...)
			r.buf = r.buf[end:]
			r.maybeResumeLocked()
			r.mu.Unlock()
			return out, nil
		}
		if r.limit > 0 && len(r.buf) > r.limit {
			partial := append([]byte(nil), r.buf...)
			r.mu.Unlock()
			return partial, &ErrLimitOverrun{Consumed: len(partial)}
		}
		if r.eof {
			partial := append([]byte(nil), r.buf...)
			r.buf = nil
			r.mu.Unlock()
			return partial, &ErrIncompleteRead{Partial: partial}
		}
		ch := r.notify
		r.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Buffered returns the number of bytes currently held, for diagnostics.
func (r *Reader) Buffered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}
