// Package ens resolves ENS names to addresses so contract arguments can
// name accounts instead of spelling out hex.
package ens

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ChainID is the network the ENS registry lives on.
const ChainID int64 = 1

// Registry is the ENS registry with fallback, the same address on every
// network that deploys ENS.
var Registry = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	// ErrNoResolver means the name has no resolver set.
	ErrNoResolver = errors.New("no resolver")
	// ErrNoAddress means the resolver has no address for the name.
	ErrNoAddress = errors.New("no address record")
	// ErrNoName means the address has no primary name.
	ErrNoName = errors.New("no reverse record")
)

var (
	resolverSelector = crypto.Keccak256([]byte("resolver(bytes32)"))[:4]
	addrSelector     = crypto.Keccak256([]byte("addr(bytes32)"))[:4]
	nameSelector     = crypto.Keccak256([]byte("name(bytes32)"))[:4]
)

// Caller issues JSON-RPC requests. *chain.Client and *rpc.Client satisfy it.
type Caller interface {
	CallContext(ctx context.Context, result any, method string, args ...any) error
}

// IsName reports whether s looks like an ENS name rather than an address.
func IsName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return false
	}
	i := strings.LastIndexByte(s, '.')
	return i > 0 && i < len(s)-1
}

// Normalize lowercases and trims a name. Full UTS-46 normalization is not
// applied.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Namehash computes the EIP-137 node of an already normalized name.
func Namehash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := crypto.Keccak256([]byte(labels[i]))
		node = crypto.Keccak256Hash(node[:], label)
	}
	return node
}

// Resolve returns the address name points to.
func Resolve(ctx context.Context, c Caller, name string) (common.Address, error) {
	name = Normalize(name)
	node := Namehash(name)

	resolver, err := resolverOf(ctx, c, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving %s: %w", name, err)
	}
	out, err := call(ctx, c, resolver, addrSelector, node)
	if err != nil {
		return common.Address{}, fmt.Errorf("resolving %s: %w", name, err)
	}
	addr, ok := wordAddress(out)
	if !ok {
		return common.Address{}, fmt.Errorf("resolving %s: %w", name, ErrNoAddress)
	}
	return addr, nil
}

// ReverseLookup returns the primary name of addr.
func ReverseLookup(ctx context.Context, c Caller, addr common.Address) (string, error) {
	node := Namehash(strings.ToLower(addr.Hex()[2:]) + ".addr.reverse")

	resolver, err := resolverOf(ctx, c, node)
	if errors.Is(err, ErrNoResolver) {
		return "", fmt.Errorf("%s: %w", addr.Hex(), ErrNoName)
	}
	if err != nil {
		return "", err
	}
	out, err := call(ctx, c, resolver, nameSelector, node)
	if err != nil {
		return "", err
	}
	name, err := decodeString(out)
	if err != nil {
		return "", fmt.Errorf("decoding name of %s: %w", addr.Hex(), err)
	}
	if name == "" {
		return "", fmt.Errorf("%s: %w", addr.Hex(), ErrNoName)
	}
	return name, nil
}

func resolverOf(ctx context.Context, c Caller, node common.Hash) (common.Address, error) {
	out, err := call(ctx, c, Registry, resolverSelector, node)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := wordAddress(out)
	if !ok {
		return common.Address{}, ErrNoResolver
	}
	return addr, nil
}

func call(ctx context.Context, c Caller, to common.Address, selector []byte, node common.Hash) ([]byte, error) {
	data := append(append([]byte(nil), selector...), node[:]...)
	msg := map[string]any{
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	var out hexutil.Bytes
	if err := c.CallContext(ctx, &out, "eth_call", msg, "latest"); err != nil {
		return nil, err
	}
	return out, nil
}

// wordAddress reads an address from the first 32-byte word. The zero address
// and short returns report false.
func wordAddress(b []byte) (common.Address, bool) {
	if len(b) < 32 {
		return common.Address{}, false
	}
	addr := common.BytesToAddress(b[12:32])
	return addr, addr != (common.Address{})
}

var stringArgs = func() abi.Arguments {
	t, _ := abi.NewType("string", "", nil)
	return abi.Arguments{{Type: t}}
}()

func decodeString(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	vals, err := stringArgs.Unpack(b)
	if err != nil {
		return "", err
	}
	s, _ := vals[0].(string)
	return s, nil
}
