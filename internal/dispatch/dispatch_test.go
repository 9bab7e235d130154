package dispatch_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/dispatch"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/gateway"
	"github.com/Mohsinsiddi/w3gate/internal/guard"
	"github.com/Mohsinsiddi/w3gate/internal/hosttest"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenA = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tokenB = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	pool   = common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8")
	fee    = big.NewInt(3000)
)

// newDispatcher wires a dispatcher for the Uniswap V3 factory on chain 1
// over host, with fast retries and polling.
func newDispatcher(t *testing.T, host gateway.Host, opts ...dispatch.Option) (*dispatch.Dispatcher, *gateway.Gateway) {
	t.Helper()
	desc, err := contract.Builtin("uniswap-v3-factory", "")
	require.NoError(t, err)

	gw := gateway.New(host)
	g := guard.New(gw, guard.WithRetry(guard.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}))
	base := []dispatch.Option{
		dispatch.WithGuard(g),
		dispatch.WithBindingOptions(
			contract.WithPollInterval(time.Millisecond),
			contract.WithConfirmTimeout(time.Second),
		),
	}
	return dispatch.New(gw, desc, 1, append(base, opts...)...), gw
}

func scriptGetPool(t *testing.T, host *hosttest.Host) {
	t.Helper()
	desc, err := contract.Builtin("uniswap-v3-factory", "")
	require.NoError(t, err)
	m, _ := desc.Method("getPool")
	out, err := m.Outputs.Pack(pool)
	require.NoError(t, err)
	host.Returns(m.ID, out)
}

func drain(t *testing.T, ch <-chan dispatch.Event) []dispatch.Event {
	t.Helper()
	var got []dispatch.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatal("event stream did not close")
			return nil
		}
	}
}

func states(events []dispatch.Event) []dispatch.State {
	out := make([]dispatch.State, len(events))
	for i, ev := range events {
		out[i] = ev.State
	}
	return out
}

func terminal(t *testing.T, events []dispatch.Event) contract.Outcome {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.Terminal(), "last event %s is not terminal", last.State)
	for _, ev := range events[:len(events)-1] {
		require.False(t, ev.Terminal())
	}
	return *last.Outcome
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func TestGetPoolOnRequiredChain(t *testing.T) {
	host := hosttest.New(1)
	scriptGetPool(t, host)
	d, _ := newDispatcher(t, host)

	events := drain(t, d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee))

	assert.Equal(t, []dispatch.State{dispatch.Connecting, dispatch.NetworkChecking, dispatch.Executing, dispatch.Idle}, states(events))
	out := terminal(t, events)
	assert.Equal(t, contract.ReadResult, out.Kind)
	require.Len(t, out.Values, 1)
	assert.Equal(t, pool, out.Values[0])
	assert.Equal(t, 0, host.Count("wallet_switchEthereumChain"))
	assert.Equal(t, dispatch.Idle, d.State())
}

func TestReadWithReadOnlyWallet(t *testing.T) {
	host := hosttest.New(1).ReadOnly()
	scriptGetPool(t, host)
	d, gw := newDispatcher(t, host)

	out, err := d.Run(context.Background(), "getPool", tokenA, tokenB, fee)
	require.NoError(t, err)
	assert.Equal(t, contract.ReadResult, out.Kind)
	assert.Equal(t, gateway.ReadOnly, gw.Session().Capability)
	assert.Equal(t, 0, host.Count("eth_sendTransaction"))
}

func TestConnectedSessionSkipsConnecting(t *testing.T) {
	host := hosttest.New(1)
	scriptGetPool(t, host)
	d, gw := newDispatcher(t, host)
	_, err := gw.Connect(context.Background())
	require.NoError(t, err)

	events := drain(t, d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee))
	assert.Equal(t, []dispatch.State{dispatch.NetworkChecking, dispatch.Executing, dispatch.Idle}, states(events))
	assert.Equal(t, 1, host.Count("eth_requestAccounts"))
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func TestCreatePoolSwitchAccepted(t *testing.T) {
	host := hosttest.New(4).Pending(1)
	d, _ := newDispatcher(t, host)

	events := drain(t, d.Invoke(context.Background(), "createPool", tokenA, tokenB, fee))

	assert.Equal(t, []dispatch.State{
		dispatch.Connecting,
		dispatch.NetworkChecking,
		dispatch.Executing,
		dispatch.Confirming,
		dispatch.Idle,
	}, states(events))

	require.NotNil(t, events[3].Outcome)
	assert.Equal(t, contract.TxSubmitted, events[3].Outcome.Kind)

	out := terminal(t, events)
	assert.Equal(t, contract.TxConfirmed, out.Kind)
	assert.Equal(t, events[3].Outcome.TxHash, out.TxHash)
	assert.Equal(t, int64(1), host.ChainID())
	assert.Equal(t, 1, host.Count("wallet_switchEthereumChain"))
}

func TestCreatePoolSwitchDeclined(t *testing.T) {
	host := hosttest.New(4).RejectSwitch()
	d, _ := newDispatcher(t, host)

	events := drain(t, d.Invoke(context.Background(), "createPool", tokenA, tokenB, fee))

	assert.Equal(t, []dispatch.State{dispatch.Connecting, dispatch.NetworkChecking, dispatch.Failed}, states(events))
	out := terminal(t, events)
	assert.Equal(t, failure.WrongNetwork, out.Err.Kind)
	assert.Equal(t, int64(1), out.Err.Required)
	assert.Equal(t, int64(4), out.Err.Observed)
	assert.Equal(t, 0, host.Count("eth_sendTransaction"))
}

func TestWriteWithoutSigning(t *testing.T) {
	host := hosttest.New(1).ReadOnly()
	d, _ := newDispatcher(t, host)

	events := drain(t, d.Invoke(context.Background(), "createPool", tokenA, tokenB, fee))

	out := terminal(t, events)
	assert.Equal(t, failure.InvalidMethod, out.Err.Kind)
	assert.Equal(t, dispatch.Failed, events[len(events)-1].State)
	assert.Equal(t, 0, host.Count("eth_call"))
	assert.Equal(t, 0, host.Count("eth_sendTransaction"))
}

func TestWriteReverted(t *testing.T) {
	host := hosttest.New(1).Revert()
	d, _ := newDispatcher(t, host)

	out, err := d.Run(context.Background(), "createPool", tokenA, tokenB, fee)
	require.ErrorIs(t, err, failure.ErrTxReverted)
	assert.NotEqual(t, common.Hash{}, out.TxHash)
	assert.Equal(t, dispatch.Idle, d.State())
}

// ---------------------------------------------------------------------------
// Failures before execution
// ---------------------------------------------------------------------------

func TestNoHost(t *testing.T) {
	d, _ := newDispatcher(t, nil)

	events := drain(t, d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee))

	assert.Equal(t, []dispatch.State{dispatch.Connecting, dispatch.Failed}, states(events))
	assert.Equal(t, failure.NoWalletCapability, terminal(t, events).Err.Kind)
}

func TestConnectRejected(t *testing.T) {
	host := hosttest.New(1).RejectConnect()
	d, _ := newDispatcher(t, host)

	_, err := d.Run(context.Background(), "getPool", tokenA, tokenB, fee)
	assert.ErrorIs(t, err, failure.ErrUserRejected)
	assert.Equal(t, 0, host.Count("eth_chainId"))
}

func TestUnknownMethod(t *testing.T) {
	host := hosttest.New(1)
	d, _ := newDispatcher(t, host)

	events := drain(t, d.Invoke(context.Background(), "burn"))
	require.Len(t, events, 1)
	assert.Equal(t, failure.InvalidMethod, terminal(t, events).Err.Kind)
	assert.Empty(t, host.Calls())
}

func TestArityMismatch(t *testing.T) {
	host := hosttest.New(1)
	d, _ := newDispatcher(t, host)

	_, err := d.Run(context.Background(), "getPool", tokenA, tokenB)
	assert.ErrorIs(t, err, failure.ErrArgumentMismatch)
	assert.Equal(t, 0, host.Count("eth_call"))
}

// ---------------------------------------------------------------------------
// One invocation at a time
// ---------------------------------------------------------------------------

func TestBusyThenIdle(t *testing.T) {
	host := hosttest.New(1)
	scriptGetPool(t, host)
	release := host.Hold("eth_chainId")
	d, _ := newDispatcher(t, host)

	first := d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee)
	<-host.Entered("eth_chainId")
	assert.Equal(t, dispatch.NetworkChecking, d.State())

	busy := drain(t, d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee))
	require.Len(t, busy, 1)
	assert.Equal(t, dispatch.Failed, busy[0].State)
	assert.Equal(t, failure.Busy, terminal(t, busy).Err.Kind)

	release()
	assert.Equal(t, contract.ReadResult, terminal(t, drain(t, first)).Kind)
	assert.Equal(t, dispatch.Idle, d.State())

	again := drain(t, d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee))
	assert.Equal(t, contract.ReadResult, terminal(t, again).Kind)
}

func TestConcurrentInvokesOneRuns(t *testing.T) {
	host := hosttest.New(1)
	scriptGetPool(t, host)
	release := host.Hold("eth_requestAccounts")
	d, _ := newDispatcher(t, host)

	const n = 8
	results := make([]contract.Outcome, n)
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch := d.Invoke(context.Background(), "getPool", tokenA, tokenB, fee)
			started.Done()
			for ev := range ch {
				if ev.Terminal() {
					results[i] = *ev.Outcome
				}
			}
		}(i)
	}
	started.Wait()
	release()
	wg.Wait()

	var ok, busy int
	for _, r := range results {
		switch {
		case r.Kind == contract.ReadResult:
			ok++
		case r.Err != nil && r.Err.Kind == failure.Busy:
			busy++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, busy)
}

// ---------------------------------------------------------------------------
// Cancellation
// ---------------------------------------------------------------------------

func TestCancelDuringConfirmation(t *testing.T) {
	host := hosttest.New(1).NeverMined()
	d, _ := newDispatcher(t, host)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := d.Invoke(ctx, "createPool", tokenA, tokenB, fee)

	var seen []dispatch.State
	for ev := range ch {
		seen = append(seen, ev.State)
		require.False(t, ev.Terminal())
		if ev.State == dispatch.Confirming {
			cancel()
		}
	}
	assert.Equal(t, dispatch.Confirming, seen[len(seen)-1])
	assert.Equal(t, dispatch.Idle, d.State())
}

func TestRunAbandoned(t *testing.T) {
	host := hosttest.New(1).NeverMined()
	d, _ := newDispatcher(t, host)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.Run(ctx, "createPool", tokenA, tokenB, fee)
	assert.ErrorIs(t, err, dispatch.ErrAbandoned)
}

// ---------------------------------------------------------------------------
// Reporter
// ---------------------------------------------------------------------------

type recorder struct {
	mu     sync.Mutex
	events []dispatch.Event
}

func (r *recorder) Report(ev dispatch.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestRunForwardsToReporter(t *testing.T) {
	host := hosttest.New(1)
	scriptGetPool(t, host)
	rec := &recorder{}
	d, _ := newDispatcher(t, host, dispatch.WithReporter(rec))

	_, err := d.Run(context.Background(), "getPool", tokenA, tokenB, fee)
	require.NoError(t, err)
	assert.Equal(t, []dispatch.State{dispatch.Connecting, dispatch.NetworkChecking, dispatch.Executing, dispatch.Idle}, states(rec.events))
}
