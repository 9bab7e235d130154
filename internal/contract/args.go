package contract

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ParseArgs coerces command-line strings into the Go values the ABI encoder
// expects for m's inputs. Integers accept decimal or 0x-prefixed hex.
func ParseArgs(m abi.Method, raw []string) ([]any, error) {
	if len(raw) != len(m.Inputs) {
		return nil, failure.New(failure.ArgumentMismatch, "%s takes %d arguments, got %d", m.RawName, len(m.Inputs), len(raw))
	}
	out := make([]any, len(raw))
	for i, in := range m.Inputs {
		v, err := parseArg(in.Type, strings.TrimSpace(raw[i]))
		if err != nil {
			name := in.Name
			if name == "" {
				name = strconv.Itoa(i)
			}
			return nil, failure.Wrap(failure.ArgumentMismatch, err, "argument %s (%s)", name, in.Type.String())
		}
		out[i] = v
	}
	return out, nil
}

func parseArg(t abi.Type, s string) (any, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("not an address: %q", s)
		}
		return common.HexToAddress(s), nil

	case abi.UintTy, abi.IntTy:
		return parseInt(t, s)

	case abi.BoolTy:
		return strconv.ParseBool(s)

	case abi.StringTy:
		return s, nil

	case abi.BytesTy:
		return hexutil.Decode(s)

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) > t.Size {
			return nil, fmt.Errorf("%d bytes do not fit bytes%d", len(b), t.Size)
		}
		v := reflect.New(t.GetType()).Elem()
		reflect.Copy(v, reflect.ValueOf(b))
		return v.Interface(), nil
	}
	return nil, fmt.Errorf("type %s is not supported on the command line", t.String())
}

func parseInt(t abi.Type, s string) (any, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("not an integer: %q", s)
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return nil, fmt.Errorf("%s out of range for uint%d", n, t.Size)
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		minVal := new(big.Int).Neg(limit)
		maxVal := new(big.Int).Sub(limit, big.NewInt(1))
		if n.Cmp(minVal) < 0 || n.Cmp(maxVal) > 0 {
			return nil, fmt.Errorf("%s out of range for int%d", n, t.Size)
		}
	}

	// The encoder wants native ints for these sizes and *big.Int otherwise.
	switch t.Size {
	case 8, 16, 32, 64:
		if t.T == abi.UintTy {
			u := n.Uint64()
			switch t.Size {
			case 8:
				return uint8(u), nil
			case 16:
				return uint16(u), nil
			case 32:
				return uint32(u), nil
			}
			return u, nil
		}
		i := n.Int64()
		switch t.Size {
		case 8:
			return int8(i), nil
		case 16:
			return int16(i), nil
		case 32:
			return int32(i), nil
		}
		return i, nil
	}
	return n, nil
}
