// Package gateway owns the connection to the host wallet: account access,
// the wallet's current chain, switch requests, and the capabilities lent to
// contract bindings.
package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

// Host is the request surface of a host wallet. *rpc.Client from go-ethereum
// satisfies it, as does wallet.LocalHost.
type Host interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// signingProbe is implemented by hosts that know whether they can sign.
type signingProbe interface {
	CanSign() bool
}

// Capability is what the connected session allows.
type Capability int

// Capabilities.
const (
	None Capability = iota
	ReadOnly
	Signing
)

func (c Capability) String() string {
	switch c {
	case ReadOnly:
		return "read-only"
	case Signing:
		return "signing"
	default:
		return "none"
	}
}

// Session is the wallet session as seen by callers.
type Session struct {
	Account    *common.Address
	Capability Capability
}

// Connected reports whether the session holds any capability.
func (s Session) Connected() bool {
	return s.Capability != None
}

// Gateway wraps a host wallet. It is safe for concurrent use.
type Gateway struct {
	host Host
	log  *zap.Logger

	mu      sync.Mutex
	session Session
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		g.log = l
	}
}

// New creates a gateway over host. A nil host is allowed; every operation
// then fails with NoWalletCapability.
func New(host Host, opts ...Option) *Gateway {
	g := &Gateway{host: host, log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connect requests account access from the host wallet.
func (g *Gateway) Connect(ctx context.Context) (Session, error) {
	if g.host == nil {
		return Session{}, failure.New(failure.NoWalletCapability, "no host wallet configured")
	}

	var accounts []common.Address
	if err := g.host.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		if code, ok := failure.Code(err); ok && failure.Unsupported(code) {
			return Session{}, failure.Wrap(failure.NoWalletCapability, err, "host cannot grant accounts")
		}
		if unreachable(ctx, err) {
			g.log.Debug("host wallet unreachable", zap.Error(err))
			return Session{}, failure.Wrap(failure.NoWalletCapability, err, "host wallet unreachable")
		}
		fe := failure.Classify(err, failure.RpcError)
		if fe.Kind == failure.UserRejected {
			g.Disconnect()
		}
		g.log.Debug("connect failed", zap.Stringer("kind", fe.Kind), zap.Error(err))
		return Session{}, fe
	}
	if len(accounts) == 0 {
		g.Disconnect()
		return Session{}, failure.New(failure.UserRejected, "wallet granted no accounts")
	}

	capability := Signing
	if p, ok := g.host.(signingProbe); ok && !p.CanSign() {
		capability = ReadOnly
	}

	account := accounts[0]
	g.mu.Lock()
	prev := g.session
	g.session = Session{Account: &account, Capability: capability}
	g.mu.Unlock()

	if prev.Account == nil || *prev.Account != account {
		g.log.Info("wallet connected",
			zap.String("account", account.Hex()),
			zap.Stringer("capability", capability))
	}
	return g.Session(), nil
}

// Session returns a copy of the current session.
func (g *Gateway) Session() Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.session
	if s.Account != nil {
		a := *s.Account
		s.Account = &a
	}
	return s
}

// Disconnect forgets the session.
func (g *Gateway) Disconnect() {
	g.mu.Lock()
	was := g.session.Capability
	g.session = Session{}
	g.mu.Unlock()
	if was != None {
		g.log.Info("wallet disconnected")
	}
}

// CurrentNetwork returns the chain id the wallet is on. It does not require a
// connected session.
func (g *Gateway) CurrentNetwork(ctx context.Context) (int64, error) {
	if g.host == nil {
		return 0, failure.New(failure.NoWalletCapability, "no host wallet configured")
	}
	var id hexutil.Uint64
	if err := g.host.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, failure.Wrap(failure.NetworkUnavailable, err, "eth_chainId")
	}
	return int64(id), nil
}

// RequestSwitch asks the wallet to move to chainID. The returned error keeps
// the provider error as its cause so callers can inspect the code.
func (g *Gateway) RequestSwitch(ctx context.Context, chainID int64) error {
	if g.host == nil {
		return failure.New(failure.NoWalletCapability, "no host wallet configured")
	}
	param := map[string]string{"chainId": hexutil.EncodeUint64(uint64(chainID))}
	g.log.Info("requesting network switch", zap.Int64("chain_id", chainID))
	if err := g.host.CallContext(ctx, nil, "wallet_switchEthereumChain", param); err != nil {
		g.log.Debug("switch refused", zap.Int64("chain_id", chainID), zap.Error(err))
		return failure.Classify(err, failure.RpcError)
	}
	return nil
}

// ReadCapability lends the host for read-only calls.
func (g *Gateway) ReadCapability() (*Reader, error) {
	if g.host == nil {
		return nil, failure.New(failure.NoWalletCapability, "no host wallet configured")
	}
	return &Reader{g: g}, nil
}

// SigningCapability lends the host for transactions from the session account.
func (g *Gateway) SigningCapability() (*Signer, error) {
	if g.host == nil {
		return nil, failure.New(failure.NoWalletCapability, "no host wallet configured")
	}
	s := g.Session()
	if s.Capability != Signing || s.Account == nil {
		return nil, failure.New(failure.InvalidMethod, "session cannot sign (capability %s)", s.Capability)
	}
	return &Signer{Reader: Reader{g: g}, account: *s.Account}, nil
}

// forward sends a request to the host and drops the session when the host
// says access was revoked.
func (g *Gateway) forward(ctx context.Context, result any, method string, args ...any) error {
	err := g.host.CallContext(ctx, result, method, args...)
	if code, ok := failure.Code(err); ok && code == failure.CodeUnauthorized {
		g.Disconnect()
	}
	return err
}

// Reader is a read capability.
type Reader struct {
	g *Gateway
}

// CallContext forwards a request to the host wallet.
func (r *Reader) CallContext(ctx context.Context, result any, method string, args ...any) error {
	return r.g.forward(ctx, result, method, args...)
}

// Signer is a signing capability bound to one account.
type Signer struct {
	Reader
	account common.Address
}

// Account returns the account transactions are sent from.
func (s *Signer) Account() common.Address {
	return s.account
}

// unreachable reports whether err means the host never answered: a
// transport failure rather than a wallet reply, classified error or
// cancellation.
func unreachable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if _, ok := failure.Code(err); ok {
		return false
	}
	var fe *failure.Error
	return !errors.As(err, &fe)
}
