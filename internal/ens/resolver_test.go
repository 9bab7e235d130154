package ens

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	publicResolver = common.HexToAddress("0x231b0Ee14048e9dCcD1d247744d114a4EB5E8E63")
	vitalik        = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
)

// fakeNode answers eth_call from a table keyed by target and calldata.
// Unknown calls return a zero word.
type fakeNode struct {
	records map[common.Address]map[string][]byte
	calls   int
	err     error
}

func newFakeNode() *fakeNode {
	return &fakeNode{records: map[common.Address]map[string][]byte{}}
}

func (f *fakeNode) set(to common.Address, selector []byte, node common.Hash, out []byte) {
	if f.records[to] == nil {
		f.records[to] = map[string][]byte{}
	}
	key := hexutil.Encode(append(append([]byte(nil), selector...), node[:]...))
	f.records[to][key] = out
}

func (f *fakeNode) CallContext(_ context.Context, result any, method string, args ...any) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	if method != "eth_call" {
		return errors.New("unexpected method " + method)
	}
	msg := args[0].(map[string]any)
	to := msg["to"].(common.Address)
	data := msg["data"].(hexutil.Bytes)
	out, ok := f.records[to][hexutil.Encode(data)]
	if !ok {
		out = make([]byte, 32)
	}
	*result.(*hexutil.Bytes) = out
	return nil
}

func word(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func TestNamehash(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "0x0000000000000000000000000000000000000000000000000000000000000000"},
		{"eth", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"},
		{"foo.eth", "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Namehash(tt.name).Hex(), tt.name)
	}
	assert.NotEqual(t, Namehash("alice.eth"), Namehash("bob.eth"))
	assert.NotEqual(t, Namehash("test.eth"), Namehash("sub.test.eth"))
}

func TestIsName(t *testing.T) {
	assert.True(t, IsName("vitalik.eth"))
	assert.True(t, IsName("pay.uniswap.eth"))
	assert.False(t, IsName("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"))
	assert.False(t, IsName("eth"))
	assert.False(t, IsName(".eth"))
	assert.False(t, IsName("vitalik."))
	assert.False(t, IsName(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "vitalik.eth", Normalize("  Vitalik.ETH "))
}

func TestResolve(t *testing.T) {
	node := newFakeNode()
	n := Namehash("vitalik.eth")
	node.set(Registry, resolverSelector, n, word(publicResolver))
	node.set(publicResolver, addrSelector, n, word(vitalik))

	got, err := Resolve(context.Background(), node, "Vitalik.eth")
	require.NoError(t, err)
	assert.Equal(t, vitalik, got)
	assert.Equal(t, 2, node.calls)
}

func TestResolveNoResolver(t *testing.T) {
	node := newFakeNode()

	_, err := Resolve(context.Background(), node, "nobody.eth")
	require.ErrorIs(t, err, ErrNoResolver)
	assert.Contains(t, err.Error(), "nobody.eth")
	assert.Equal(t, 1, node.calls)
}

func TestResolveNoAddress(t *testing.T) {
	node := newFakeNode()
	n := Namehash("empty.eth")
	node.set(Registry, resolverSelector, n, word(publicResolver))

	_, err := Resolve(context.Background(), node, "empty.eth")
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestResolveCallError(t *testing.T) {
	node := newFakeNode()
	node.err = errors.New("connection refused")

	_, err := Resolve(context.Background(), node, "vitalik.eth")
	assert.ErrorContains(t, err, "connection refused")
}

func TestReverseLookup(t *testing.T) {
	node := newFakeNode()
	n := Namehash("d8da6bf26964af9d7eed9e03e53415d37aa96045.addr.reverse")
	encoded, err := stringArgs.Pack("vitalik.eth")
	require.NoError(t, err)
	node.set(Registry, resolverSelector, n, word(publicResolver))
	node.set(publicResolver, nameSelector, n, encoded)

	name, err := ReverseLookup(context.Background(), node, vitalik)
	require.NoError(t, err)
	assert.Equal(t, "vitalik.eth", name)
}

func TestReverseLookupNoRecord(t *testing.T) {
	node := newFakeNode()

	_, err := ReverseLookup(context.Background(), node, vitalik)
	assert.ErrorIs(t, err, ErrNoName)
}

func TestDecodeString(t *testing.T) {
	s, err := decodeString(nil)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = decodeString([]byte{0x01})
	assert.Error(t, err)
}
