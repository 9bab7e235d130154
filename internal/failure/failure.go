// Package failure classifies everything that can go wrong between a wallet,
// the network it is on, and a contract call into a fixed set of kinds.
//
// Every error leaving the gateway, guard, contract and dispatch packages is a
// *Error. Raw transport errors are kept only as the Cause.
package failure

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
)

// Kind is the classification of a failed operation.
type Kind int

// Failure kinds.
const (
	NoWalletCapability Kind = iota + 1
	UserRejected
	NetworkUnavailable
	WrongNetwork
	InvalidMethod
	ArgumentMismatch
	RpcError
	TxReverted
	Timeout
	Busy
)

var kindNames = map[Kind]string{
	NoWalletCapability: "NoWalletCapability",
	UserRejected:       "UserRejected",
	NetworkUnavailable: "NetworkUnavailable",
	WrongNetwork:       "WrongNetwork",
	InvalidMethod:      "InvalidMethod",
	ArgumentMismatch:   "ArgumentMismatch",
	RpcError:           "RpcError",
	TxReverted:         "TxReverted",
	Timeout:            "Timeout",
	Busy:               "Busy",
}

var kindMessages = map[Kind]string{
	NoWalletCapability: "no wallet is available",
	UserRejected:       "the request was rejected in the wallet",
	NetworkUnavailable: "could not read the wallet's network",
	WrongNetwork:       "the wallet is on the wrong network",
	InvalidMethod:      "the contract method cannot be called this way",
	ArgumentMismatch:   "the arguments do not match the contract method",
	RpcError:           "the node returned an error",
	TxReverted:         "the transaction reverted",
	Timeout:            "stopped waiting for the transaction to be mined",
	Busy:               "another operation is still in progress",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Message returns the human-readable summary for the kind.
func (k Kind) Message() string {
	if s, ok := kindMessages[k]; ok {
		return s
	}
	return "unknown failure"
}

// Retryable reports whether issuing the same invocation again can succeed
// without changing configuration.
func (k Kind) Retryable() bool {
	switch k {
	case WrongNetwork, UserRejected, Busy:
		return true
	default:
		return false
	}
}

// Sentinels for errors.Is. Matching is by kind only.
var (
	ErrNoWalletCapability = &Error{Kind: NoWalletCapability}
	ErrUserRejected       = &Error{Kind: UserRejected}
	ErrNetworkUnavailable = &Error{Kind: NetworkUnavailable}
	ErrWrongNetwork       = &Error{Kind: WrongNetwork}
	ErrInvalidMethod      = &Error{Kind: InvalidMethod}
	ErrArgumentMismatch   = &Error{Kind: ArgumentMismatch}
	ErrRPC                = &Error{Kind: RpcError}
	ErrTxReverted         = &Error{Kind: TxReverted}
	ErrTimeout            = &Error{Kind: Timeout}
	ErrBusy               = &Error{Kind: Busy}
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string // detail appended to the kind's summary
	Cause   error

	// Chain ids, set for WrongNetwork.
	Required int64
	Observed int64
}

func (e *Error) Error() string {
	msg := e.Kind.Message()
	if e.Kind == WrongNetwork && e.Required != 0 {
		msg = fmt.Sprintf("%s (required chain %d, wallet on chain %d)", msg, e.Required, e.Observed)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing kinds.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New returns a classified error with a formatted detail message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a classified error carrying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Chain returns a WrongNetwork error carrying both chain ids.
func Chain(required, observed int64, cause error) *Error {
	return &Error{Kind: WrongNetwork, Required: required, Observed: observed, Cause: cause}
}

// KindOf returns the kind of err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Classify maps err onto the taxonomy. Already classified errors pass through
// unchanged; wallet provider codes and context deadlines get their own kinds;
// anything else becomes fallback.
func Classify(err error, fallback Kind) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: Timeout, Cause: err}
	}
	if code, ok := Code(err); ok {
		switch code {
		case CodeUserRejected, CodeUnauthorized:
			return &Error{Kind: UserRejected, Cause: err}
		case CodeDisconnected, CodeChainDisconnected:
			return &Error{Kind: NetworkUnavailable, Cause: err}
		}
	}
	return &Error{Kind: fallback, Cause: err}
}

// Code returns the JSON-RPC / EIP-1193 error code carried by err.
func Code(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}
