// Package rpc chooses which node a wallet host talks to for a chain.
package rpc

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no endpoint for a chain can be used.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Nodes more than this many blocks behind the best are skipped.
	staleBlockThreshold = 3
	// The fastest winner is reused for this long.
	cacheTTL = 5 * time.Minute
)

// ParseAlgorithm validates a configured algorithm name. "" means fastest.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(s); a {
	case "":
		return AlgorithmFastest, nil
	case AlgorithmFastest, AlgorithmRoundRobin, AlgorithmFailover:
		return a, nil
	default:
		return "", fmt.Errorf("unknown rpc algorithm %q (want fastest, round-robin or failover)", s)
	}
}

// Endpoint is one node URL and what probing it found. An endpoint that was
// never probed has Probed false and is always a candidate.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Probed      bool
	Err         error
}

// Usable reports whether the endpoint may be picked.
func (e *Endpoint) Usable() bool {
	return !e.Probed || e.Err == nil
}

// Picker selects among the endpoints of one chain.
type Picker struct {
	algo Algorithm

	mu          sync.Mutex
	next        int
	cachedURL   string
	cacheExpiry time.Time
}

// NewPicker creates a Picker using algo.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Algorithm returns the picker's algorithm.
func (p *Picker) Algorithm() Algorithm { return p.algo }

// Cached returns the remembered fastest URL, if still fresh.
func (p *Picker) Cached() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cachedURL == "" || time.Now().After(p.cacheExpiry) {
		return "", false
	}
	return p.cachedURL, true
}

// Forget drops the cached winner, e.g. after it stopped answering.
func (p *Picker) Forget() {
	p.mu.Lock()
	p.cachedURL = ""
	p.mu.Unlock()
}

// Pick selects an endpoint according to the algorithm.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}
	switch p.algo {
	case AlgorithmRoundRobin:
		return p.pickRoundRobin(endpoints)
	case AlgorithmFailover:
		return pickFailover(endpoints)
	default:
		return p.pickFastest(endpoints)
	}
}

func (p *Picker) pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedURL != "" && time.Now().Before(p.cacheExpiry) {
		for i := range endpoints {
			if endpoints[i].URL == p.cachedURL && endpoints[i].Usable() {
				return &endpoints[i], nil
			}
		}
	}

	var best uint64
	for _, e := range endpoints {
		if e.Usable() && e.BlockNumber > best {
			best = e.BlockNumber
		}
	}

	var (
		winner    *Endpoint
		bestScore float64
	)
	for _, e := range usable(endpoints) {
		if best > 0 && best-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, best); winner == nil || s > bestScore {
			winner, bestScore = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}

	p.cachedURL = winner.URL
	p.cacheExpiry = time.Now().Add(cacheTTL)
	return winner, nil
}

func (p *Picker) pickRoundRobin(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	candidates := usable(endpoints)
	if len(candidates) == 0 {
		return nil, ErrNoHealthyRPC
	}
	i := p.next % len(candidates)
	p.next = i + 1
	return candidates[i], nil
}

func pickFailover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		if endpoints[i].Usable() {
			return &endpoints[i], nil
		}
	}
	return nil, ErrNoHealthyRPC
}

// score favours low latency, then recency.
func score(e *Endpoint, best uint64) float64 {
	var s float64
	if ms := e.Latency.Milliseconds(); ms > 0 {
		s += 1000.0 / float64(ms)
	} else if e.Latency > 0 {
		s += 1000.0
	}
	if best > 0 {
		s += float64(10 - int64(best-e.BlockNumber))
	}
	return s
}

func usable(endpoints []Endpoint) []*Endpoint {
	var out []*Endpoint
	for i := range endpoints {
		if endpoints[i].Usable() {
			out = append(out, &endpoints[i])
		}
	}
	return out
}
