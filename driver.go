package telnet

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jquast/telnetlib3-go/config"
	"github.com/jquast/telnetlib3-go/observability"
)

// NegotiationOutcome is the result of waiting out the connect-time
// negotiation clock (spec §4.J).
type NegotiationOutcome struct {
	// TimedOut is true when MaxWait elapsed (or the context was canceled)
	// before every pending reply arrived.
	TimedOut bool
	// Pending lists the outstanding pending keys at the moment negotiation
	// was forced complete. Empty when TimedOut is false.
	Pending []string
}

// Driver runs the connect-time negotiation clock: it polls the engine's
// option table until either MinWait has elapsed with nothing outstanding,
// or MaxWait forces completion regardless of outstanding replies (spec
// §4.J). It also tracks the separate binary-encoding-ready latch, which
// resolves once BINARY has been negotiated in both directions or MaxWait
// elapses first.
type Driver struct {
	engine *Engine
	opts   config.Options
	role   Role
	logger *zap.Logger
}

// NewDriver builds a Driver bound to engine, using opts' connect-time
// timing for role.
func NewDriver(engine *Engine, opts config.Options, role Role, logger *zap.Logger) *Driver {
	return &Driver{engine: engine, opts: opts, role: role, logger: observability.OrNop(logger)}
}

// AwaitNegotiation blocks until negotiation is considered complete: no
// pending replies remain and MinWait has elapsed, or MaxWait has elapsed
// regardless, or ctx is canceled.
func (d *Driver) AwaitNegotiation(ctx context.Context) NegotiationOutcome {
	minWait := d.opts.MinWait(d.role.String())
	maxWait := d.opts.MaxWait(d.role.String())
	start := time.Now()
	deadline := start.Add(maxWait)

	ticker := time.NewTicker(d.opts.ConnectDeferred)
	defer ticker.Stop()

	for {
		now := time.Now()
		if now.Sub(start) >= minWait && !d.engine.Table().AnyPending() {
			return NegotiationOutcome{}
		}
		if !now.Before(deadline) {
			pending := d.engine.Table().PendingKeys()
			if len(pending) > 0 {
				d.logger.Warn("connect-time negotiation forced complete with pending replies",
					zap.Strings("pending", pending))
			}
			return NegotiationOutcome{TimedOut: true, Pending: pending}
		}
		select {
		case <-ctx.Done():
			return NegotiationOutcome{TimedOut: true, Pending: d.engine.Table().PendingKeys()}
		case <-ticker.C:
		}
	}
}

// AwaitEncoding blocks until BINARY has been negotiated in both
// directions, returning true — or until MaxWait elapses or ctx is
// canceled first, returning false.
func (d *Driver) AwaitEncoding(ctx context.Context) bool {
	maxWait := d.opts.MaxWait(d.role.String())
	deadline := time.Now().Add(maxWait)

	ticker := time.NewTicker(d.opts.ConnectDeferred)
	defer ticker.Stop()

	for {
		if d.engine.Table().LocalEnabled(OptBINARY) && d.engine.Table().RemoteEnabled(OptBINARY) {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Run drives both clocks concurrently and returns once both have settled.
func (d *Driver) Run(ctx context.Context) (NegotiationOutcome, bool) {
	g, gctx := errgroup.WithContext(ctx)

	var outcome NegotiationOutcome
	var encodingReady bool

	g.Go(func() error {
		outcome = d.AwaitNegotiation(gctx)
		return nil
	})
	g.Go(func() error {
		encodingReady = d.AwaitEncoding(gctx)
		return nil
	})

	_ = g.Wait()
	return outcome, encodingReady
}
