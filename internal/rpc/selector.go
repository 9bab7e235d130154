package rpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"go.uber.org/zap"
)

// Selector opens a client to the best node of a chain. It keeps one Picker
// per chain so round-robin position and the fastest winner survive across
// switches.
type Selector struct {
	registry *chain.Registry
	algo     Algorithm
	limiter  *chain.RateLimiter
	log      *zap.Logger

	mu      sync.Mutex
	pickers map[int64]*Picker
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithRateLimiter throttles every client the selector opens.
func WithRateLimiter(l *chain.RateLimiter) SelectorOption {
	return func(s *Selector) {
		s.limiter = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) SelectorOption {
	return func(s *Selector) {
		s.log = l
	}
}

// NewSelector creates a selector over registry.
func NewSelector(registry *chain.Registry, algo Algorithm, opts ...SelectorOption) *Selector {
	s := &Selector{
		registry: registry,
		algo:     algo,
		log:      zap.NewNop(),
		pickers:  make(map[int64]*Picker),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the chain registry the selector resolves against.
func (s *Selector) Registry() *chain.Registry { return s.registry }

func (s *Selector) picker(chainID int64) *Picker {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickers[chainID]
	if !ok {
		p = NewPicker(s.algo)
		s.pickers[chainID] = p
	}
	return p
}

// Best returns the URL to use for chainID. Failover tries URLs in order
// without probing; the other algorithms probe all URLs unless a fresh
// winner is cached.
func (s *Selector) Best(ctx context.Context, chainID int64) (string, error) {
	n, err := s.registry.GetByChainID(chainID)
	if err != nil {
		return "", err
	}
	if len(n.RPCs) == 0 {
		return "", fmt.Errorf("%w for %s", ErrNoHealthyRPC, n.Name)
	}
	if len(n.RPCs) == 1 {
		return n.RPCs[0], nil
	}

	p := s.picker(chainID)
	if url, ok := p.Cached(); ok {
		return url, nil
	}

	var endpoints []Endpoint
	if s.algo == AlgorithmFailover {
		for _, u := range n.RPCs {
			ep := Probe(ctx, u, chainID)
			endpoints = append(endpoints, ep)
			if ep.Err == nil {
				break
			}
		}
	} else {
		endpoints = ProbeAll(ctx, n.RPCs, chainID)
	}
	for _, ep := range endpoints {
		if ep.Err != nil {
			s.log.Debug("rpc endpoint unusable", zap.String("url", ep.URL), zap.Error(ep.Err))
		}
	}

	winner, err := p.Pick(endpoints)
	if err != nil {
		return "", fmt.Errorf("%w for %s", err, n.Name)
	}
	s.log.Debug("rpc endpoint selected",
		zap.String("chain", n.Name),
		zap.String("url", winner.URL),
		zap.Duration("latency", winner.Latency),
		zap.String("algorithm", string(s.algo)))
	return winner.URL, nil
}

// Connect dials the best node for chainID.
func (s *Selector) Connect(ctx context.Context, chainID int64) (*chain.Client, error) {
	url, err := s.Best(ctx, chainID)
	if err != nil {
		return nil, err
	}
	var opts []chain.ClientOption
	if s.limiter != nil {
		opts = append(opts, chain.WithRateLimiter(s.limiter))
	}
	c, err := chain.Dial(ctx, url, opts...)
	if err != nil {
		s.picker(chainID).Forget()
		return nil, err
	}
	return c, nil
}
