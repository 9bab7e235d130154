package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMessagesAreDistinct(t *testing.T) {
	seen := make(map[string]Kind)
	for k := NoWalletCapability; k <= Busy; k++ {
		msg := k.Message()
		require.NotEqual(t, "unknown failure", msg, k.String())
		if other, dup := seen[msg]; dup {
			t.Fatalf("%s and %s share message %q", k, other, msg)
		}
		seen[msg] = k
	}
	assert.Len(t, seen, 10)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "WrongNetwork", WrongNetwork.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{WrongNetwork, true},
		{UserRejected, true},
		{Busy, true},
		{InvalidMethod, false},
		{ArgumentMismatch, false},
		{RpcError, false},
		{TxReverted, false},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Retryable())
		})
	}
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(Busy, "invoke %q", "getPool"))
	assert.ErrorIs(t, err, ErrBusy)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, Busy, KindOf(err))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestWrongNetworkCarriesChainIDs(t *testing.T) {
	err := Chain(1, 4, nil)
	assert.Contains(t, err.Error(), "required chain 1")
	assert.Contains(t, err.Error(), "wallet on chain 4")

	var fe *Error
	require.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &fe)
	assert.Equal(t, int64(1), fe.Required)
	assert.Equal(t, int64(4), fe.Observed)
}

func TestErrorIncludesDetailAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(RpcError, cause, "eth_call")
	assert.Equal(t, "the node returned an error: eth_call: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"user rejected", &ProviderError{Code: CodeUserRejected, Message: "denied"}, UserRejected},
		{"unauthorized", &ProviderError{Code: CodeUnauthorized, Message: "locked"}, UserRejected},
		{"disconnected", &ProviderError{Code: CodeDisconnected, Message: "gone"}, NetworkUnavailable},
		{"chain disconnected", &ProviderError{Code: CodeChainDisconnected, Message: "gone"}, NetworkUnavailable},
		{"other code", &ProviderError{Code: -32000, Message: "nonce too low"}, RpcError},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"plain", errors.New("boom"), RpcError},
		{"already classified", New(ArgumentMismatch, "x"), ArgumentMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, RpcError)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil, RpcError))
}

func TestCode(t *testing.T) {
	code, ok := Code(fmt.Errorf("wrap: %w", &ProviderError{Code: CodeUnrecognizedChain}))
	require.True(t, ok)
	assert.Equal(t, CodeUnrecognizedChain, code)

	_, ok = Code(errors.New("plain"))
	assert.False(t, ok)
}

func TestUnsupported(t *testing.T) {
	assert.True(t, Unsupported(CodeUnsupportedMethod))
	assert.True(t, Unsupported(CodeMethodNotFound))
	assert.False(t, Unsupported(CodeUserRejected))
}
