package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client is a JSON-RPC connection to one EVM node.
type Client struct {
	url     string
	raw     *rpc.Client
	eth     *ethclient.Client
	limiter *RateLimiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimiter throttles every request through l, keyed by the node URL.
func WithRateLimiter(l *RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// Dial connects to url. HTTP endpoints are not contacted until the first
// request.
func Dial(ctx context.Context, url string, opts ...ClientOption) (*Client, error) {
	raw, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	c := &Client{url: url, raw: raw, eth: ethclient.NewClient(raw)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// URL returns the node URL.
func (c *Client) URL() string { return c.url }

// Close releases the connection.
func (c *Client) Close() { c.raw.Close() }

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx, c.url)
}

// CallContext performs a raw JSON-RPC call. Node errors are returned as
// produced by the rpc package, so codes and revert data survive.
func (c *Client) CallContext(ctx context.Context, result any, method string, args ...any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.raw.CallContext(ctx, result, method, args...)
}

// ChainID returns the chain id the node reports.
func (c *Client) ChainID(ctx context.Context) (int64, error) {
	var id hexutil.Uint64
	if err := c.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return int64(id), nil
}

// Ping tests the endpoint and returns latency and the head block number.
func (c *Client) Ping(ctx context.Context) (latency time.Duration, blockNum uint64, err error) {
	start := time.Now()
	var n hexutil.Uint64
	err = c.CallContext(ctx, &n, "eth_blockNumber")
	latency = time.Since(start)
	if err != nil {
		return latency, 0, err
	}
	return latency, uint64(n), nil
}

// PendingNonce returns the next nonce for account, counting pending txs.
func (c *Client) PendingNonce(ctx context.Context, account common.Address) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.eth.PendingNonceAt(ctx, account)
}

// EstimateGas asks the node how much gas msg needs.
func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	return c.eth.EstimateGas(ctx, msg)
}

// SendTransaction broadcasts a signed transaction and returns its hash.
func (c *Client) SendTransaction(ctx context.Context, tx *types.Transaction) (common.Hash, error) {
	if err := c.wait(ctx); err != nil {
		return common.Hash{}, err
	}
	if err := c.eth.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}
