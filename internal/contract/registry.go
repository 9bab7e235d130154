package contract

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrContractNotFound is returned when a built-in contract id is unknown.
var ErrContractNotFound = errors.New("contract not found")

// Mutability is the call class a request asks for.
type Mutability string

// Mutabilities. pure is treated as View and payable as NonPayable.
const (
	View       Mutability = "view"
	NonPayable Mutability = "nonpayable"
)

// Descriptor is the fixed address and ABI of the contract a binding talks to.
type Descriptor struct {
	Name    string
	Address common.Address
	ABI     abi.ABI
}

// NewDescriptor parses abiJSON and validates address.
func NewDescriptor(name, address string, abiJSON []byte) (Descriptor, error) {
	if !common.IsHexAddress(address) {
		return Descriptor{}, fmt.Errorf("invalid contract address %q", address)
	}
	parsed, err := parseABI(abiJSON)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Name: name, Address: common.HexToAddress(address), ABI: parsed}, nil
}

// Method looks up a function by name.
func (d Descriptor) Method(name string) (abi.Method, bool) {
	m, ok := d.ABI.Methods[name]
	return m, ok
}

// Mutability returns the call class of the named function.
func (d Descriptor) Mutability(name string) (Mutability, bool) {
	m, ok := d.ABI.Methods[name]
	if !ok {
		return "", false
	}
	return mutabilityOf(m), true
}

// ReadMethods returns the names of view and pure functions, sorted.
func (d Descriptor) ReadMethods() []string {
	return d.methods(View)
}

// WriteMethods returns the names of state-changing functions, sorted.
func (d Descriptor) WriteMethods() []string {
	return d.methods(NonPayable)
}

func (d Descriptor) methods(want Mutability) []string {
	var out []string
	for name, m := range d.ABI.Methods {
		if mutabilityOf(m) == want {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Signature renders a method as name(type name, ...) returns (...).
func Signature(m abi.Method) string {
	var b strings.Builder
	b.WriteString(m.RawName)
	b.WriteString("(")
	for i, in := range m.Inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(in.Type.String())
		if in.Name != "" {
			b.WriteString(" " + in.Name)
		}
	}
	b.WriteString(")")
	if len(m.Outputs) > 0 {
		b.WriteString(" returns (")
		for i, out := range m.Outputs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(out.Type.String())
		}
		b.WriteString(")")
	}
	return b.String()
}

func mutabilityOf(m abi.Method) Mutability {
	if m.IsConstant() {
		return View
	}
	return NonPayable
}
