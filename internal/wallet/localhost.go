package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/config"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/rpc"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// createPoolSelector gets the larger fallback gas limit since it deploys a
// pool contract.
var createPoolSelector = crypto.Keccak256([]byte("createPool(address,address,uint24)"))[:4]

// ApprovalKind names what the user is asked to approve.
type ApprovalKind int

const (
	ApproveConnect ApprovalKind = iota
	ApproveSwitch
	ApproveSend
)

func (k ApprovalKind) String() string {
	switch k {
	case ApproveConnect:
		return "connect"
	case ApproveSwitch:
		return "switch network"
	case ApproveSend:
		return "send transaction"
	default:
		return fmt.Sprintf("ApprovalKind(%d)", int(k))
	}
}

// Approval describes one prompt. Network is set for ApproveSwitch and
// ApproveSend; To and Data for ApproveSend.
type Approval struct {
	Kind    ApprovalKind
	Account common.Address
	Network *chain.Network
	To      *common.Address
	Data    []byte
}

// Approver asks the user to confirm wallet requests.
type Approver interface {
	Approve(ctx context.Context, a Approval) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, a Approval) (bool, error)

// Approve implements Approver.
func (f ApproverFunc) Approve(ctx context.Context, a Approval) (bool, error) {
	return f(ctx, a)
}

// AutoApprove approves everything. Used with --yes.
var AutoApprove = ApproverFunc(func(context.Context, Approval) (bool, error) { return true, nil })

// LocalHost is a host wallet backed by a local account. It answers the
// wallet methods itself and forwards everything else to the node of the
// active chain.
type LocalHost struct {
	wallet   *Wallet
	signer   *Signer
	selector *rpc.Selector
	approver Approver
	patience time.Duration
	log      *zap.Logger

	mu         sync.Mutex
	chainID    int64
	client     *chain.Client
	authorized bool
}

// HostOption configures a LocalHost.
type HostOption func(*LocalHost)

// WithApprover sets the approval prompt. Without one every request is
// rejected.
func WithApprover(a Approver) HostOption {
	return func(h *LocalHost) {
		h.approver = a
	}
}

// WithApprovalTimeout bounds how long a prompt may stay unanswered before
// the request counts as rejected.
func WithApprovalTimeout(d time.Duration) HostOption {
	return func(h *LocalHost) {
		if d > 0 {
			h.patience = d
		}
	}
}

// WithHostLogger sets the logger.
func WithHostLogger(l *zap.Logger) HostOption {
	return func(h *LocalHost) {
		h.log = l
	}
}

// NewLocalHost exposes w on chainID. keys is only used by signing wallets.
func NewLocalHost(w *Wallet, keys Keys, selector *rpc.Selector, chainID int64, opts ...HostOption) (*LocalHost, error) {
	if _, err := selector.Registry().GetByChainID(chainID); err != nil {
		return nil, err
	}
	h := &LocalHost{
		wallet:   w,
		selector: selector,
		chainID:  chainID,
		patience: config.ApprovalTimeout,
		log:      zap.NewNop(),
	}
	if w.CanSign() {
		h.signer = NewSigner(w, keys)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// CanSign reports whether the account can sign transactions.
func (h *LocalHost) CanSign() bool {
	return h.signer != nil
}

// Close releases the node connection.
func (h *LocalHost) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil {
		h.client.Close()
		h.client = nil
	}
}

// CallContext answers a wallet request.
func (h *LocalHost) CallContext(ctx context.Context, result any, method string, args ...any) error {
	switch method {
	case "eth_requestAccounts":
		return h.requestAccounts(ctx, result)
	case "eth_accounts":
		return setResult(result, h.accounts())
	case "eth_chainId":
		h.mu.Lock()
		id := h.chainID
		h.mu.Unlock()
		return setResult(result, hexutil.Uint64(id))
	case "wallet_switchEthereumChain":
		return h.switchChain(ctx, args)
	case "eth_sendTransaction":
		return h.sendTransaction(ctx, result, args)
	default:
		c, err := h.node(ctx)
		if err != nil {
			return err
		}
		return c.CallContext(ctx, result, method, args...)
	}
}

func (h *LocalHost) accounts() []common.Address {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.authorized {
		return []common.Address{}
	}
	return []common.Address{h.wallet.Account()}
}

func (h *LocalHost) requestAccounts(ctx context.Context, result any) error {
	h.mu.Lock()
	authorized := h.authorized
	h.mu.Unlock()

	if !authorized {
		if err := h.approve(ctx, Approval{Kind: ApproveConnect, Account: h.wallet.Account()}); err != nil {
			return err
		}
		h.mu.Lock()
		h.authorized = true
		h.mu.Unlock()
		h.log.Info("account connected", zap.String("wallet", h.wallet.Name), zap.String("account", h.wallet.Address))
	}
	return setResult(result, h.accounts())
}

func (h *LocalHost) switchChain(ctx context.Context, args []any) error {
	if len(args) != 1 {
		return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: "expected one parameter"}
	}
	var p struct {
		ChainID *hexutil.Uint64 `json:"chainId"`
	}
	if err := setResult(&p, args[0]); err != nil || p.ChainID == nil {
		return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: "invalid chainId"}
	}
	target := int64(*p.ChainID)

	h.mu.Lock()
	current := h.chainID
	h.mu.Unlock()
	if target == current {
		return nil
	}

	n, err := h.selector.Registry().GetByChainID(target)
	if err != nil {
		return &failure.ProviderError{Code: failure.CodeUnrecognizedChain, Message: fmt.Sprintf("unrecognized chain id %s", chain.HexChainID(target))}
	}
	if err := h.approve(ctx, Approval{Kind: ApproveSwitch, Account: h.wallet.Account(), Network: n}); err != nil {
		return err
	}

	c, err := h.selector.Connect(ctx, target)
	if err != nil {
		return &failure.ProviderError{Code: failure.CodeChainDisconnected, Message: fmt.Sprintf("%s: %v", n.Name, err)}
	}

	h.mu.Lock()
	old := h.client
	h.client = c
	h.chainID = target
	h.mu.Unlock()
	if old != nil {
		old.Close()
	}
	h.log.Info("switched network", zap.String("chain", n.Name), zap.Int64("chain_id", target), zap.String("rpc", c.URL()))
	return nil
}

// txArgs is the eth_sendTransaction parameter object.
type txArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Input hexutil.Bytes   `json:"input"`
	Value *hexutil.Big    `json:"value"`
	Gas   *hexutil.Uint64 `json:"gas"`
}

func (a *txArgs) calldata() []byte {
	if len(a.Input) > 0 {
		return a.Input
	}
	return a.Data
}

func (h *LocalHost) sendTransaction(ctx context.Context, result any, args []any) error {
	h.mu.Lock()
	authorized, chainID := h.authorized, h.chainID
	h.mu.Unlock()

	account := h.wallet.Account()
	if !authorized {
		return &failure.ProviderError{Code: failure.CodeUnauthorized, Message: "account not connected"}
	}
	if h.signer == nil {
		return &failure.ProviderError{Code: failure.CodeUnauthorized, Message: fmt.Sprintf("wallet %q is watch-only", h.wallet.Name)}
	}
	if len(args) != 1 {
		return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: "expected one transaction object"}
	}
	var tx txArgs
	if err := setResult(&tx, args[0]); err != nil {
		return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: err.Error()}
	}
	if tx.From != nil && *tx.From != account {
		return &failure.ProviderError{Code: failure.CodeUnauthorized, Message: fmt.Sprintf("%s is not a connected account", tx.From.Hex())}
	}

	n, err := h.selector.Registry().GetByChainID(chainID)
	if err != nil {
		return err
	}
	if err := h.approve(ctx, Approval{Kind: ApproveSend, Account: account, Network: n, To: tx.To, Data: tx.calldata()}); err != nil {
		return err
	}

	c, err := h.node(ctx)
	if err != nil {
		return err
	}
	signed, err := h.buildAndSign(ctx, c, chainID, account, &tx)
	if err != nil {
		return err
	}
	hash, err := c.SendTransaction(ctx, signed)
	if err != nil {
		return fmt.Errorf("broadcasting transaction: %w", err)
	}
	h.log.Info("transaction sent",
		zap.String("hash", hash.Hex()),
		zap.Uint64("nonce", signed.Nonce()),
		zap.Uint64("gas", signed.Gas()),
		zap.Float64("fee_cap_gwei", chain.WeiToGwei(signed.GasFeeCap())),
		zap.String("chain", n.Name))
	return setResult(result, hash)
}

func (h *LocalHost) buildAndSign(ctx context.Context, c *chain.Client, chainID int64, from common.Address, a *txArgs) (*types.Transaction, error) {
	nonce, err := c.PendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	value := new(big.Int)
	if a.Value != nil {
		value = a.Value.ToInt()
	}
	data := a.calldata()

	var gas uint64
	if a.Gas != nil {
		gas = uint64(*a.Gas)
	} else {
		gas, err = c.EstimateGas(ctx, ethereum.CallMsg{From: from, To: a.To, Value: value, Data: data})
		if err != nil {
			gas = config.GasLimitContractCall
			if bytes.HasPrefix(data, createPoolSelector) {
				gas = config.GasLimitPoolCreate
			}
			h.log.Debug("gas estimate failed, using fallback", zap.Uint64("gas", gas), zap.Error(err))
		} else {
			gas += gas / 5
		}
	}

	fees, err := c.SuggestFees(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting fees: %w", err)
	}

	var inner types.TxData
	if fees.Legacy() {
		inner = &types.LegacyTx{Nonce: nonce, GasPrice: fees.GasPrice, Gas: gas, To: a.To, Value: value, Data: data}
	} else {
		inner = &types.DynamicFeeTx{
			ChainID:   big.NewInt(chainID),
			Nonce:     nonce,
			GasTipCap: fees.TipCap,
			GasFeeCap: fees.FeeCap,
			Gas:       gas,
			To:        a.To,
			Value:     value,
			Data:      data,
		}
	}
	return h.signer.SignTx(types.NewTx(inner), big.NewInt(chainID))
}

// node returns the client for the active chain, dialling it on first use.
func (h *LocalHost) node(ctx context.Context) (*chain.Client, error) {
	h.mu.Lock()
	if h.client != nil {
		c := h.client
		h.mu.Unlock()
		return c, nil
	}
	chainID := h.chainID
	h.mu.Unlock()

	c, err := h.selector.Connect(ctx, chainID)
	if err != nil {
		return nil, &failure.ProviderError{Code: failure.CodeDisconnected, Message: err.Error()}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client != nil || h.chainID != chainID {
		// Lost a race with another dial or a switch.
		c.Close()
		if h.client == nil {
			return nil, &failure.ProviderError{Code: failure.CodeChainDisconnected, Message: "network changed"}
		}
		return h.client, nil
	}
	h.client = c
	return c, nil
}

func (h *LocalHost) approve(ctx context.Context, a Approval) error {
	if h.approver == nil {
		return &failure.ProviderError{Code: failure.CodeUserRejected, Message: "no approver configured"}
	}
	actx, cancel := context.WithTimeout(ctx, h.patience)
	defer cancel()
	ok, err := h.approver.Approve(actx, a)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &failure.ProviderError{Code: failure.CodeUserRejected, Message: a.Kind.String() + " request timed out"}
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &failure.ProviderError{Code: failure.CodeUserRejected, Message: err.Error()}
	}
	if !ok {
		h.log.Debug("request rejected", zap.Stringer("kind", a.Kind))
		return &failure.ProviderError{Code: failure.CodeUserRejected, Message: "user rejected the " + a.Kind.String() + " request"}
	}
	return nil
}

func setResult(result, v any) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}
