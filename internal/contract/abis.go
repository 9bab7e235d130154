package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// BuiltinKind describes a contract whose ABI is embedded in the binary. New
// built-ins register themselves via init() in their own <name>_abi.go file.
type BuiltinKind struct {
	ID          string // machine key, e.g. "uniswap-v3-factory"
	Name        string
	Description string
	ABI         string         // ABI JSON
	Address     common.Address // canonical deployment, zero if none
	ChainID     int64          // chain of the canonical deployment
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin adds a built-in ABI to the global registry.
func RegisterBuiltin(b BuiltinKind) {
	builtinRegistry[b.ID] = b
}

// GetBuiltin returns a built-in by ID.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Builtin returns a descriptor for a built-in. An empty address selects the
// canonical deployment.
func Builtin(id, address string) (Descriptor, error) {
	b, ok := GetBuiltin(id)
	if !ok {
		ids := make([]string, 0, len(builtinRegistry))
		for _, k := range AllBuiltins() {
			ids = append(ids, k.ID)
		}
		return Descriptor{}, fmt.Errorf("%w: builtin %q (known: %s)", ErrContractNotFound, id, strings.Join(ids, ", "))
	}
	if address == "" {
		if b.Address == (common.Address{}) {
			return Descriptor{}, fmt.Errorf("builtin %q has no canonical address; set one", id)
		}
		address = b.Address.Hex()
	}
	return NewDescriptor(b.Name, address, []byte(b.ABI))
}
