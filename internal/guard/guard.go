// Package guard makes sure the wallet is on the required chain before an
// operation runs.
package guard

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/gateway"
	"go.uber.org/zap"
)

// Wallet is the part of the gateway the guard drives.
type Wallet interface {
	Session() gateway.Session
	Connect(ctx context.Context) (gateway.Session, error)
	CurrentNetwork(ctx context.Context) (int64, error)
	RequestSwitch(ctx context.Context, chainID int64) error
}

// State is the observed and required chain for one check.
type State struct {
	Current  int64
	Required int64
}

// Matches reports whether the wallet is on the required chain.
func (s State) Matches() bool {
	return s.Current == s.Required
}

// RetryConfig bounds the re-query after an accepted switch. Wallets apply
// switches asynchronously, so the first read may still show the old chain.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig returns 5 attempts with delays capped at 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
	}
}

// Guard checks the wallet's chain. It keeps no state between calls.
type Guard struct {
	wallet Wallet
	retry  RetryConfig
	log    *zap.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithRetry sets the post-switch re-query bounds.
func WithRetry(cfg RetryConfig) Option {
	return func(g *Guard) {
		if cfg.MaxAttempts < 1 {
			cfg.MaxAttempts = 1
		}
		g.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Guard) {
		g.log = l
	}
}

// New returns a guard over wallet.
func New(wallet Wallet, opts ...Option) *Guard {
	g := &Guard{wallet: wallet, retry: DefaultRetryConfig(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnsureNetwork connects if needed, then makes sure the wallet is on
// required, issuing at most one switch request.
func (g *Guard) EnsureNetwork(ctx context.Context, required int64) (State, error) {
	st := State{Required: required}

	if !g.wallet.Session().Connected() {
		if _, err := g.wallet.Connect(ctx); err != nil {
			return st, err
		}
	}

	current, err := g.wallet.CurrentNetwork(ctx)
	if err != nil {
		return st, err
	}
	st.Current = current
	if st.Matches() {
		return st, nil
	}

	g.log.Info("wallet on wrong network",
		zap.Int64("current", current),
		zap.Int64("required", required))

	if err := g.wallet.RequestSwitch(ctx, required); err != nil {
		return st, failure.Chain(required, current, err)
	}

	st.Current, err = g.confirm(ctx, required, current)
	if err != nil {
		return st, err
	}
	g.log.Info("network switched", zap.Int64("chain_id", required))
	return st, nil
}

func (g *Guard) confirm(ctx context.Context, required, observed int64) (int64, error) {
	for attempt := 0; attempt < g.retry.MaxAttempts; attempt++ {
		id, err := g.wallet.CurrentNetwork(ctx)
		if err == nil {
			observed = id
			if id == required {
				return id, nil
			}
		}

		if attempt < g.retry.MaxAttempts-1 {
			timer := time.NewTimer(g.delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return observed, failure.Chain(required, observed, ctx.Err())
			case <-timer.C:
			}
		}
	}
	return observed, failure.Chain(required, observed, nil)
}

// delay is exponential backoff with jitter in [d/2, d).
func (g *Guard) delay(attempt int) time.Duration {
	d := g.retry.BaseDelay * (1 << attempt)
	if d > g.retry.MaxDelay {
		d = g.retry.MaxDelay
	}
	half := d / 2
	if half <= 0 {
		return d
	}
	return half + rand.N(half)
}
