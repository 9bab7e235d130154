package contract

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Caller is a read capability: the request surface of a host wallet.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// Sender is a signing capability bound to one account.
type Sender interface {
	Caller
	Account() common.Address
}

// CallRequest asks for one contract function invocation.
type CallRequest struct {
	Method     string
	Args       []any
	Mutability Mutability
}

// OutcomeKind tags an Outcome.
type OutcomeKind int

// Outcome kinds.
const (
	ReadResult OutcomeKind = iota + 1
	TxSubmitted
	TxConfirmed
	Failure
)

func (k OutcomeKind) String() string {
	switch k {
	case ReadResult:
		return "ReadResult"
	case TxSubmitted:
		return "TxSubmitted"
	case TxConfirmed:
		return "TxConfirmed"
	case Failure:
		return "Failure"
	default:
		return "Outcome(?)"
	}
}

// Block is where a transaction was mined.
type Block struct {
	Number  uint64
	Hash    common.Hash
	GasUsed uint64
}

// Outcome is one result of a call. TxSubmitted is the only non-terminal
// kind.
type Outcome struct {
	Kind   OutcomeKind
	Method string
	Values []any       // ReadResult, in output order
	TxHash common.Hash // TxSubmitted, TxConfirmed, and TxReverted/Timeout failures
	Block  *Block      // TxConfirmed
	Err    *failure.Error
}

// Terminal reports whether no further outcome follows.
func (o Outcome) Terminal() bool {
	return o.Kind != TxSubmitted
}

// Binding executes calls against one contract through a lent capability.
type Binding struct {
	desc    Descriptor
	read    Caller
	sign    Sender // nil for read-only bindings
	timeout time.Duration
	poll    time.Duration
	log     *zap.Logger
}

// Option configures a Binding.
type Option func(*Binding)

// WithConfirmTimeout bounds the wait for a receipt.
func WithConfirmTimeout(d time.Duration) Option {
	return func(b *Binding) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithPollInterval sets how often receipts are polled.
func WithPollInterval(d time.Duration) Option {
	return func(b *Binding) {
		if d > 0 {
			b.poll = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Binding) {
		b.log = l
	}
}

func newBinding(desc Descriptor, read Caller, sign Sender, opts []Option) *Binding {
	b := &Binding{
		desc:    desc,
		read:    read,
		sign:    sign,
		timeout: config.TxConfirmTimeout,
		poll:    config.ReceiptPollInterval,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BindReadOnly binds desc to a read capability. Writes fail with
// InvalidMethod.
func BindReadOnly(desc Descriptor, read Caller, opts ...Option) *Binding {
	return newBinding(desc, read, nil, opts)
}

// BindSigning binds desc to a signing capability, which also serves reads.
func BindSigning(desc Descriptor, signer Sender, opts ...Option) *Binding {
	return newBinding(desc, signer, signer, opts)
}

// Descriptor returns the bound contract.
func (b *Binding) Descriptor() Descriptor {
	return b.desc
}

// CanSign reports whether the binding can send transactions.
func (b *Binding) CanSign() bool {
	return b.sign != nil
}

// Call validates req and executes it. The returned channel yields
// ReadResult, or TxSubmitted followed by TxConfirmed, or a Failure, then
// closes. If ctx is cancelled the channel closes without a terminal outcome.
func (b *Binding) Call(ctx context.Context, req CallRequest) <-chan Outcome {
	out := make(chan Outcome, 2)

	data, fe := b.prepare(req)
	if fe != nil {
		out <- Outcome{Kind: Failure, Method: req.Method, Err: fe}
		close(out)
		return out
	}

	go func() {
		defer close(out)
		if req.Mutability == View {
			b.view(ctx, req.Method, data, out)
			return
		}
		b.send(ctx, req.Method, data, out)
	}()
	return out
}

// prepare checks the request against the ABI and encodes calldata. Nothing
// here touches the transport.
func (b *Binding) prepare(req CallRequest) ([]byte, *failure.Error) {
	m, ok := b.desc.Method(req.Method)
	if !ok {
		return nil, failure.New(failure.InvalidMethod, "%s has no function %q", b.desc.Name, req.Method)
	}
	if got := mutabilityOf(m); got != req.Mutability {
		return nil, failure.New(failure.InvalidMethod, "%s is %s, requested as %s", req.Method, got, req.Mutability)
	}
	if len(req.Args) != len(m.Inputs) {
		return nil, failure.New(failure.ArgumentMismatch, "%s takes %d arguments, got %d", req.Method, len(m.Inputs), len(req.Args))
	}
	if req.Mutability == NonPayable && b.sign == nil {
		return nil, failure.New(failure.InvalidMethod, "%s changes state but the binding is read-only", req.Method)
	}
	data, err := b.pack(req)
	if err != nil {
		return nil, failure.Wrap(failure.ArgumentMismatch, err, "%s", req.Method)
	}
	return data, nil
}

// pack encodes calldata. The encoder panics on some values it cannot use,
// such as a nil *big.Int, so those are turned into errors.
func (b *Binding) pack(req CallRequest) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encoding arguments: %v", r)
		}
	}()
	return b.desc.ABI.Pack(req.Method, req.Args...)
}
