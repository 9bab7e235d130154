// Package dispatch sequences a contract invocation through wallet
// connection, network verification, execution and confirmation, one
// invocation at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/gateway"
	"github.com/Mohsinsiddi/w3gate/internal/guard"
	"go.uber.org/zap"
)

// ErrAbandoned is returned by Run when the caller's context ended before a
// terminal outcome.
var ErrAbandoned = errors.New("invocation abandoned")

// State is where an invocation is.
type State int

// States.
const (
	Idle State = iota
	Connecting
	NetworkChecking
	Executing
	Confirming
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case NetworkChecking:
		return "NetworkChecking"
	case Executing:
		return "Executing"
	case Confirming:
		return "Confirming"
	case Failed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Event reports a state entered by an invocation. Outcome is set on the
// Confirming event (TxSubmitted) and on the terminal event.
type Event struct {
	State   State
	Method  string
	Outcome *contract.Outcome
}

// Terminal reports whether this is the last event of the stream.
func (e Event) Terminal() bool {
	return e.Outcome != nil && e.Outcome.Terminal()
}

// Reporter receives every event Run drains.
type Reporter interface {
	Report(Event)
}

// Dispatcher runs invocations against one contract on one required chain.
type Dispatcher struct {
	gw       *gateway.Gateway
	guard    *guard.Guard
	desc     contract.Descriptor
	chainID  int64
	bindOpts []contract.Option
	reporter Reporter
	log      *zap.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// WithGuard replaces the default network guard.
func WithGuard(g *guard.Guard) Option {
	return func(d *Dispatcher) {
		d.guard = g
	}
}

// WithBindingOptions passes options to every contract binding.
func WithBindingOptions(opts ...contract.Option) Option {
	return func(d *Dispatcher) {
		d.bindOpts = append(d.bindOpts, opts...)
	}
}

// WithReporter sets the sink Run forwards events to.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		d.reporter = r
	}
}

// New creates a dispatcher for desc on chainID.
func New(gw *gateway.Gateway, desc contract.Descriptor, chainID int64, opts ...Option) *Dispatcher {
	d := &Dispatcher{gw: gw, desc: desc, chainID: chainID, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	if d.guard == nil {
		d.guard = guard.New(gw, guard.WithLogger(d.log))
	}
	return d
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Descriptor returns the contract the dispatcher drives.
func (d *Dispatcher) Descriptor() contract.Descriptor {
	return d.desc
}

// ChainID returns the required chain.
func (d *Dispatcher) ChainID() int64 {
	return d.chainID
}

// Invoke starts method with args. The stream carries every state entered,
// then exactly one terminal event, then closes. If ctx ends first the
// stream closes without a terminal event.
//
// Only one invocation runs at a time; Invoke while another is in flight
// yields a single Failed(Busy) event.
func (d *Dispatcher) Invoke(ctx context.Context, method string, args ...any) <-chan Event {
	events := make(chan Event, 8)

	d.mu.Lock()
	if d.state != Idle {
		st := d.state
		d.mu.Unlock()
		d.log.Debug("rejecting invocation", zap.String("method", method), zap.Stringer("state", st))
		events <- failedEvent(method, failure.New(failure.Busy, "%s requested while %s", method, st))
		close(events)
		return events
	}

	mut, ok := d.desc.Mutability(method)
	if !ok {
		d.mu.Unlock()
		events <- failedEvent(method, failure.New(failure.InvalidMethod, "%s has no function %q", d.desc.Name, method))
		close(events)
		return events
	}

	first := NetworkChecking
	if !d.gw.Session().Connected() {
		first = Connecting
	}
	d.state = first
	d.mu.Unlock()

	d.log.Debug("invocation started", zap.String("method", method), zap.Stringer("state", first))
	events <- Event{State: first, Method: method}

	go d.run(ctx, method, mut, args, first, events)
	return events
}

func (d *Dispatcher) run(ctx context.Context, method string, mut contract.Mutability, args []any, first State, events chan<- Event) {
	defer close(events)

	if first == Connecting {
		if _, err := d.gw.Connect(ctx); err != nil {
			d.fail(ctx, events, method, err)
			return
		}
	}

	if mut == contract.NonPayable {
		if s := d.gw.Session(); s.Capability != gateway.Signing {
			d.fail(ctx, events, method, failure.New(failure.InvalidMethod,
				"%s changes state and needs a signing wallet (session is %s)", method, s.Capability))
			return
		}
	}

	if first == Connecting {
		d.enter(events, method, NetworkChecking, nil)
	}
	if _, err := d.guard.EnsureNetwork(ctx, d.chainID); err != nil {
		d.fail(ctx, events, method, err)
		return
	}

	d.enter(events, method, Executing, nil)
	binding, err := d.bind(mut)
	if err != nil {
		d.fail(ctx, events, method, err)
		return
	}

	req := contract.CallRequest{Method: method, Args: args, Mutability: mut}
	for o := range binding.Call(ctx, req) {
		switch o.Kind {
		case contract.TxSubmitted:
			d.enter(events, method, Confirming, &o)
		case contract.Failure:
			d.finish(events, method, Failed, &o)
			return
		default:
			d.finish(events, method, Idle, &o)
			return
		}
	}

	d.log.Debug("invocation abandoned", zap.String("method", method))
	d.reset()
}

func (d *Dispatcher) bind(mut contract.Mutability) (*contract.Binding, error) {
	opts := append([]contract.Option{contract.WithLogger(d.log)}, d.bindOpts...)
	if mut == contract.View {
		r, err := d.gw.ReadCapability()
		if err != nil {
			return nil, err
		}
		return contract.BindReadOnly(d.desc, r, opts...), nil
	}
	s, err := d.gw.SigningCapability()
	if err != nil {
		return nil, err
	}
	return contract.BindSigning(d.desc, s, opts...), nil
}

func (d *Dispatcher) enter(events chan<- Event, method string, s State, o *contract.Outcome) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
	d.log.Debug("state", zap.String("method", method), zap.Stringer("state", s))
	events <- Event{State: s, Method: method, Outcome: o}
}

// finish returns the dispatcher to Idle before delivering the terminal event.
func (d *Dispatcher) finish(events chan<- Event, method string, s State, o *contract.Outcome) {
	d.reset()
	fields := []zap.Field{zap.String("method", method), zap.Stringer("state", s), zap.Stringer("outcome", o.Kind)}
	if o.Err != nil {
		fields = append(fields, zap.Stringer("kind", o.Err.Kind), zap.Error(o.Err))
	}
	d.log.Debug("invocation finished", fields...)
	events <- Event{State: s, Method: method, Outcome: o}
}

func (d *Dispatcher) fail(ctx context.Context, events chan<- Event, method string, err error) {
	if ctx.Err() != nil {
		d.log.Debug("invocation abandoned", zap.String("method", method), zap.Error(err))
		d.reset()
		return
	}
	ev := failedEvent(method, failure.Classify(err, failure.RpcError))
	d.finish(events, method, Failed, ev.Outcome)
}

func (d *Dispatcher) reset() {
	d.mu.Lock()
	d.state = Idle
	d.mu.Unlock()
}

func failedEvent(method string, fe *failure.Error) Event {
	return Event{
		State:   Failed,
		Method:  method,
		Outcome: &contract.Outcome{Kind: contract.Failure, Method: method, Err: fe},
	}
}

// Run invokes method and drains the stream, forwarding every event to the
// configured Reporter. It returns the terminal outcome; a failure outcome is
// also returned as the error.
func (d *Dispatcher) Run(ctx context.Context, method string, args ...any) (contract.Outcome, error) {
	var (
		last contract.Outcome
		done bool
	)
	for ev := range d.Invoke(ctx, method, args...) {
		if d.reporter != nil {
			d.reporter.Report(ev)
		}
		if ev.Terminal() {
			last, done = *ev.Outcome, true
		}
	}
	if !done {
		if err := ctx.Err(); err != nil {
			return last, fmt.Errorf("%w: %w", ErrAbandoned, err)
		}
		return last, ErrAbandoned
	}
	if last.Err != nil {
		return last, last.Err
	}
	return last, nil
}
