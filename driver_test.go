package telnet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jquast/telnetlib3-go/config"
)

func testDriverOpts() config.Options {
	return config.Options{
		MaxSubnegotiation:    4096,
		ReaderSoftLimit:      4096,
		ConnectDeferred:      2 * time.Millisecond,
		ConnectMinWaitClient: 5 * time.Millisecond,
		ConnectMinWaitServer: 5 * time.Millisecond,
		ConnectMaxWaitClient: 40 * time.Millisecond,
		ConnectMaxWaitServer: 40 * time.Millisecond,
	}
}

func TestDriver_NegotiationCompletesOnceNothingPendingAfterMinWait(t *testing.T) {
	e, _ := newTestEngine(RoleServer, Hooks{})
	d := NewDriver(e, testDriverOpts(), RoleServer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	outcome := d.AwaitNegotiation(ctx)
	assert.False(t, outcome.TimedOut)
	assert.Empty(t, outcome.Pending)
}

func TestDriver_NegotiationForcedCompleteAtMaxWaitWithPending(t *testing.T) {
	e, _ := newTestEngine(RoleServer, Hooks{})
	e.Table().SetPendingSB(OptTTYPE)
	d := NewDriver(e, testDriverOpts(), RoleServer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	outcome := d.AwaitNegotiation(ctx)
	assert.True(t, outcome.TimedOut)
	assert.Contains(t, outcome.Pending, "SB+TTYPE")
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestDriver_NegotiationRespectsContextCancellation(t *testing.T) {
	e, _ := newTestEngine(RoleServer, Hooks{})
	e.Table().SetPendingSB(OptTTYPE)
	d := NewDriver(e, testDriverOpts(), RoleServer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(3 * time.Millisecond)
		cancel()
	}()
	outcome := d.AwaitNegotiation(ctx)
	assert.True(t, outcome.TimedOut)
}

func TestDriver_AwaitEncodingResolvesOnceBinaryBothDirections(t *testing.T) {
	e, _ := newTestEngine(RoleServer, Hooks{})
	e.Table().SetLocal(OptBINARY, true)
	e.Table().SetRemote(OptBINARY, true)
	d := NewDriver(e, testDriverOpts(), RoleServer, nil)

	ready := d.AwaitEncoding(context.Background())
	assert.True(t, ready)
}

func TestDriver_AwaitEncodingFalseWhenNeverNegotiated(t *testing.T) {
	e, _ := newTestEngine(RoleServer, Hooks{})
	d := NewDriver(e, testDriverOpts(), RoleServer, nil)

	ready := d.AwaitEncoding(context.Background())
	assert.False(t, ready)
}

func TestDriver_RunCombinesBothClocks(t *testing.T) {
	e, _ := newTestEngine(RoleServer, Hooks{})
	e.Table().SetLocal(OptBINARY, true)
	e.Table().SetRemote(OptBINARY, true)
	d := NewDriver(e, testDriverOpts(), RoleServer, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	outcome, encodingReady := d.Run(ctx)
	require.False(t, outcome.TimedOut)
	assert.True(t, encodingReady)
}
