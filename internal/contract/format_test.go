package contract_test

import (
	"math/big"
	"testing"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{weth, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"},
		{big.NewInt(-60), "-60"},
		{(*big.Int)(nil), "0"},
		{[]byte{0xca, 0xfe}, "0xcafe"},
		{[4]byte{0xde, 0xad, 0xbe, 0xef}, "0xdeadbeef"},
		{true, "true"},
		{"pool", "pool"},
		{uint8(18), "18"},
		{[]common.Address{weth, usdc}, "[0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2, 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48]"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, contract.FormatValue(tt.in))
	}
}

func TestFieldsUseOutputNames(t *testing.T) {
	d := factory(t)
	m, _ := d.Method("parameters")

	fields := contract.Fields(m, []any{contract.UniswapV3Factory, weth, usdc, big.NewInt(3000), big.NewInt(60)})
	require.Len(t, fields, 5)
	assert.Equal(t, "factory", fields[0].Name)
	assert.Equal(t, "tickSpacing", fields[4].Name)
	assert.Equal(t, "int24", fields[4].Type)
	assert.Equal(t, "60", fields[4].Value)
}

func TestFieldsUnnamed(t *testing.T) {
	d := factory(t)
	m, _ := d.Method("getPool")

	fields := contract.Fields(m, []any{pool})
	require.Len(t, fields, 1)
	assert.Equal(t, "0", fields[0].Name)
	assert.Equal(t, pool.Hex(), fields[0].Value)
}
