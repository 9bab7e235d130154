package contract

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Field is one named, formatted output value.
type Field struct {
	Name  string
	Type  string
	Value string
}

// Fields pairs unpacked values with m's outputs. Unnamed outputs are
// labelled by position.
func Fields(m abi.Method, values []any) []Field {
	out := make([]Field, 0, len(values))
	for i, v := range values {
		f := Field{Name: strconv.Itoa(i), Value: FormatValue(v)}
		if i < len(m.Outputs) {
			if m.Outputs[i].Name != "" {
				f.Name = m.Outputs[i].Name
			}
			f.Type = m.Outputs[i].Type.String()
		}
		out = append(out, f)
	}
	return out
}

// FormatValue renders an unpacked ABI value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case *big.Int:
		if x == nil {
			return "0"
		}
		return x.String()
	case []byte:
		return hexutil.Encode(x)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			for i := range b {
				b[i] = byte(rv.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		return formatList(rv)
	case reflect.Slice:
		return formatList(rv)
	}
	return fmt.Sprint(v)
}

func formatList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = FormatValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
