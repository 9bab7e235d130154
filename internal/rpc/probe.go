package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
)

// ErrChainMismatch is set on an endpoint that serves a different chain than
// the one it is listed under.
var ErrChainMismatch = errors.New("endpoint serves a different chain")

const probeTimeout = 5 * time.Second

// Probe pings url and verifies it serves chainID. The endpoint is returned
// even on failure, with Err set.
func Probe(ctx context.Context, url string, chainID int64) Endpoint {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ep := Endpoint{URL: url, Probed: true}
	c, err := chain.Dial(ctx, url)
	if err != nil {
		ep.Err = err
		return ep
	}
	defer c.Close()

	ep.Latency, ep.BlockNumber, ep.Err = c.Ping(ctx)
	if ep.Err != nil {
		return ep
	}
	got, err := c.ChainID(ctx)
	switch {
	case err != nil:
		ep.Err = err
	case got != chainID:
		ep.Err = fmt.Errorf("%w: %s reports %d, want %d", ErrChainMismatch, url, got, chainID)
	}
	return ep
}

// ProbeAll probes every url in parallel, keeping input order.
func ProbeAll(ctx context.Context, urls []string, chainID int64) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Go(func() {
			out[i] = Probe(ctx, u, chainID)
		})
	}
	wg.Wait()
	return out
}
