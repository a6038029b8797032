package telnet

import (
	"context"
	"io"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jquast/telnetlib3-go/config"
	"github.com/jquast/telnetlib3-go/observability"
	"github.com/jquast/telnetlib3-go/stream"
	"github.com/jquast/telnetlib3-go/subneg"
)

// Session is the single entry point a server or client embeds: it wires
// the IAC interpreter, the negotiation engine, the proactive services, the
// connect-time clock, and the asynchronous stream reader/writer into one
// connection-scoped object. A Session owns no socket; the caller feeds it
// raw bytes read off the transport and writes whatever it returns.
type Session struct {
	id       string
	role     Role
	engine   *Engine
	services *Services
	driver   *Driver
	interp   *Interpreter
	reader   *stream.Reader
	writer   *stream.Writer
	logger   *zap.Logger
}

// NewSession builds a Session for role, writing escaped/command bytes to
// out. pr, if non-nil, is told to pause/resume the transport under
// backpressure (spec §4.H); hooks supplies the application-level
// negotiation callbacks; opts configures buffer limits and connect-time
// timing.
func NewSession(role Role, out io.Writer, pr stream.PauseResumer, hooks Hooks, opts config.Options, logger *zap.Logger) *Session {
	id := uuid.New().String()
	logger = observability.OrNop(logger).With(zap.String("session_id", id))
	reader := stream.NewReader(opts.ReaderSoftLimit, pr)

	var engine *Engine
	writer := stream.NewWriter(out,
		func() bool { return engine.Table().LocalEnabled(OptBINARY) },
		func() bool { return role == RoleServer && engine.Table().LocalEnabled(OptECHO) },
		reader)

	engine = NewEngine(role, NewPolicy(opts.AlwaysDO), hooks, writer, logger)
	interp := NewInterpreter(opts.MaxSubnegotiation, reader, engine, logger)

	return &Session{
		id:       id,
		role:     role,
		engine:   engine,
		services: NewServices(engine),
		driver:   NewDriver(engine, opts, role, logger),
		interp:   interp,
		reader:   reader,
		writer:   writer,
		logger:   logger,
	}
}

// Feed parses raw bytes read off the transport, forwarding in-band bytes
// to the reader and dispatching negotiation/sub-negotiation events to the
// engine.
func (s *Session) Feed(data []byte) {
	s.interp.FeedBytes(data)
}

// SetEOF marks the in-band stream as ended; err is nil for a clean close.
func (s *Session) SetEOF(err error) {
	s.reader.SetEOF(err)
}

// Read returns up to n in-band bytes (see stream.Reader.Read for the
// n==0/n<0/n>0 semantics).
func (s *Session) Read(ctx context.Context, n int) ([]byte, error) {
	return s.reader.Read(ctx, n)
}

// ReadExactly blocks until exactly n in-band bytes are available or EOF.
func (s *Session) ReadExactly(ctx context.Context, n int) ([]byte, error) {
	return s.reader.ReadExactly(ctx, n)
}

// ReadUntil blocks until sep appears in the in-band stream.
func (s *Session) ReadUntil(ctx context.Context, sep []byte) ([]byte, error) {
	return s.reader.ReadUntil(ctx, sep)
}

// ReadUntilPattern blocks until re matches the in-band stream.
func (s *Session) ReadUntilPattern(ctx context.Context, re *regexp.Regexp) ([]byte, error) {
	return s.reader.ReadUntilPattern(ctx, re)
}

// Write escapes p (doubling IAC) and sends it as in-band application data.
func (s *Session) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

// Close tears the session down: the reader rejects further Feed calls and
// the underlying transport, if closeable, is closed exactly once.
func (s *Session) Close() error {
	s.reader.Close()
	return s.writer.Close()
}

// ID returns the session's correlation ID, also attached to every log line
// this session emits.
func (s *Session) ID() string { return s.id }

// Engine exposes the negotiation engine, e.g. to inspect the option table
// or register late hooks.
func (s *Session) Engine() *Engine { return s.engine }

// Services exposes the proactive request/send operations.
func (s *Session) Services() *Services { return s.services }

// NegotiateConnect runs the connect-time negotiation clock to completion,
// per spec §4.J: it blocks until MinWait has elapsed with nothing pending
// or MaxWait forces completion, and reports whether BINARY encoding
// became ready in both directions before that same deadline.
func (s *Session) NegotiateConnect(ctx context.Context) (NegotiationOutcome, bool) {
	return s.driver.Run(ctx)
}

// WindowSize returns the most recently negotiated NAWS dimensions.
func (s *Session) WindowSize() subneg.WindowSize {
	return s.engine.WindowSize()
}
