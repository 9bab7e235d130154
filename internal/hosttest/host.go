// Package hosttest provides a scriptable in-memory wallet host for tests.
package hosttest

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is the default account the host exposes.
var Account = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

// Host answers wallet requests from scripted state. The zero value is not
// usable; call New.
type Host struct {
	mu sync.Mutex

	chainID  int64
	accounts []common.Address
	signing  bool

	rejectConnect  bool
	rejectSwitch   bool
	unknownChain   bool
	switchIgnored  bool
	switchLag      int
	lagLeft        int
	nextChain      int64
	chainErr       error
	callErr        error
	sendErr        error
	callResults    map[string][]byte
	receiptStatus  uint64
	pendingPolls   int
	receiptMissing bool
	receiptErr     error
	receiptFails   int

	holds   map[string]chan struct{}
	entered map[string]chan struct{}
	reached map[string]bool

	calls   []string
	sent    []SentTx
	polls   int
	txCount uint64
}

// SentTx is a transaction submitted through eth_sendTransaction.
type SentTx struct {
	From common.Address
	To   common.Address
	Data []byte
	Hash common.Hash
}

// New returns a signing host on chainID with one account.
func New(chainID int64) *Host {
	return &Host{
		chainID:       chainID,
		accounts:      []common.Address{Account},
		signing:       true,
		callResults:   make(map[string][]byte),
		receiptStatus: types.ReceiptStatusSuccessful,
		holds:         make(map[string]chan struct{}),
		entered:       make(map[string]chan struct{}),
		reached:       make(map[string]bool),
	}
}

// ReadOnly makes the host report no signing capability.
func (h *Host) ReadOnly() *Host { h.signing = false; return h }

// RejectConnect makes eth_requestAccounts fail with code 4001.
func (h *Host) RejectConnect() *Host { h.rejectConnect = true; return h }

// RejectSwitch makes wallet_switchEthereumChain fail with code 4001.
func (h *Host) RejectSwitch() *Host { h.rejectSwitch = true; return h }

// UnknownChain makes wallet_switchEthereumChain fail with code 4902.
func (h *Host) UnknownChain() *Host { h.unknownChain = true; return h }

// IgnoreSwitch accepts switch requests without changing chain.
func (h *Host) IgnoreSwitch() *Host { h.switchIgnored = true; return h }

// SwitchLag makes an accepted switch visible only after n further
// eth_chainId requests.
func (h *Host) SwitchLag(n int) *Host { h.switchLag = n; return h }

// FailChainID makes eth_chainId return err.
func (h *Host) FailChainID(err error) *Host { h.chainErr = err; return h }

// FailCall makes eth_call return err.
func (h *Host) FailCall(err error) *Host { h.callErr = err; return h }

// FailSend makes eth_sendTransaction return err.
func (h *Host) FailSend(err error) *Host { h.sendErr = err; return h }

// Revert makes mined receipts carry a failed status.
func (h *Host) Revert() *Host { h.receiptStatus = types.ReceiptStatusFailed; return h }

// Pending keeps receipts unavailable for n polls.
func (h *Host) Pending(n int) *Host { h.pendingPolls = n; return h }

// FailReceipts makes the next n eth_getTransactionReceipt requests return
// err.
func (h *Host) FailReceipts(n int, err error) *Host {
	h.receiptFails, h.receiptErr = n, err
	return h
}

// NeverMined keeps receipts unavailable forever.
func (h *Host) NeverMined() *Host { h.receiptMissing = true; return h }

// Returns scripts the eth_call answer for the method with the given selector.
func (h *Host) Returns(selector []byte, data []byte) *Host {
	h.callResults[hexutil.Encode(selector)] = data
	return h
}

// Hold blocks method until the returned release func is called.
func (h *Host) Hold(method string) (release func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan struct{})
	h.holds[method] = ch
	h.entered[method] = make(chan struct{})
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Entered returns a channel closed when a held method is first reached.
func (h *Host) Entered(method string) <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entered[method]
}

// CanSign reports whether the host holds signing keys.
func (h *Host) CanSign() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signing
}

// ChainID returns the chain the host is currently on.
func (h *Host) ChainID() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.chainID
}

// Count returns how many times method was requested.
func (h *Host) Count(method string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if c == method {
			n++
		}
	}
	return n
}

// Calls returns every requested method in order.
func (h *Host) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// Sent returns submitted transactions.
func (h *Host) Sent() []SentTx {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]SentTx(nil), h.sent...)
}

// CallContext implements the host capability.
func (h *Host) CallContext(ctx context.Context, result any, method string, args ...any) error {
	h.mu.Lock()
	h.calls = append(h.calls, method)
	hold := h.holds[method]
	if entered, ok := h.entered[method]; ok && !h.reached[method] {
		h.reached[method] = true
		close(entered)
	}
	h.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch method {
	case "eth_requestAccounts":
		if h.rejectConnect {
			return &failure.ProviderError{Code: failure.CodeUserRejected, Message: "User rejected the request."}
		}
		return assign(result, h.accounts)

	case "eth_accounts":
		return assign(result, h.accounts)

	case "eth_chainId":
		if h.chainErr != nil {
			return h.chainErr
		}
		id := h.chainID
		if h.lagLeft > 0 {
			h.lagLeft--
			if h.lagLeft == 0 {
				h.chainID = h.nextChain
			}
		}
		return assign(result, hexutil.Uint64(id))

	case "wallet_switchEthereumChain":
		if h.rejectSwitch {
			return &failure.ProviderError{Code: failure.CodeUserRejected, Message: "User rejected the request."}
		}
		if h.unknownChain {
			return &failure.ProviderError{Code: failure.CodeUnrecognizedChain, Message: "Unrecognized chain ID."}
		}
		var params struct {
			ChainID hexutil.Uint64 `json:"chainId"`
		}
		if len(args) != 1 {
			return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: "expected one parameter"}
		}
		if err := assign(&params, args[0]); err != nil {
			return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: err.Error()}
		}
		switch {
		case h.switchIgnored:
		case h.switchLag > 0:
			h.nextChain = int64(params.ChainID)
			h.lagLeft = h.switchLag
		default:
			h.chainID = int64(params.ChainID)
		}
		return assign(result, nil)

	case "eth_call":
		if h.callErr != nil {
			return h.callErr
		}
		msg, err := decodeMsg(args)
		if err != nil {
			return err
		}
		if len(msg.Data) < 4 {
			return &failure.ProviderError{Code: failure.CodeExecutionReverted, Message: "execution reverted"}
		}
		out, ok := h.callResults[hexutil.Encode(msg.Data[:4])]
		if !ok {
			return &failure.ProviderError{Code: failure.CodeExecutionReverted, Message: "execution reverted"}
		}
		return assign(result, hexutil.Bytes(out))

	case "eth_sendTransaction":
		if !h.signing {
			return &failure.ProviderError{Code: failure.CodeUnauthorized, Message: "account cannot sign"}
		}
		if h.sendErr != nil {
			return h.sendErr
		}
		msg, err := decodeMsg(args)
		if err != nil {
			return err
		}
		h.txCount++
		var nonce [8]byte
		binary.BigEndian.PutUint64(nonce[:], h.txCount)
		hash := crypto.Keccak256Hash(msg.Data, nonce[:])
		h.sent = append(h.sent, SentTx{From: msg.From, To: msg.To, Data: msg.Data, Hash: hash})
		return assign(result, hash)

	case "eth_getTransactionReceipt":
		var hash common.Hash
		if len(args) != 1 {
			return &failure.ProviderError{Code: failure.CodeInvalidParams, Message: "expected one parameter"}
		}
		if err := assign(&hash, args[0]); err != nil {
			return err
		}
		if h.receiptFails > 0 {
			h.receiptFails--
			return h.receiptErr
		}
		h.polls++
		if h.receiptMissing || h.polls <= h.pendingPolls {
			return assign(result, nil)
		}
		receipt := &types.Receipt{
			Type:              types.DynamicFeeTxType,
			Status:            h.receiptStatus,
			CumulativeGasUsed: 4_500_000,
			Logs:              []*types.Log{},
			TxHash:            hash,
			GasUsed:           4_500_000,
			BlockHash:         common.BytesToHash([]byte{0xb1, 0x0c}),
			BlockNumber:       big.NewInt(19_000_000),
		}
		return assign(result, receipt)
	}

	return &failure.ProviderError{Code: failure.CodeMethodNotFound, Message: fmt.Sprintf("the method %s does not exist", method)}
}

type callMsg struct {
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

func decodeMsg(args []any) (callMsg, error) {
	var msg callMsg
	if len(args) == 0 {
		return msg, &failure.ProviderError{Code: failure.CodeInvalidParams, Message: "missing transaction object"}
	}
	if err := assign(&msg, args[0]); err != nil {
		return msg, &failure.ProviderError{Code: failure.CodeInvalidParams, Message: err.Error()}
	}
	return msg, nil
}

// assign copies v into result through JSON, the way an RPC client would.
func assign(result, v any) error {
	if result == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, result)
}
