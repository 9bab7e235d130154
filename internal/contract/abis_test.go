package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// GetBuiltin / AllBuiltins
// ---------------------------------------------------------------------------

func TestGetBuiltinFound(t *testing.T) {
	contract.RegisterBuiltin(contract.BuiltinKind{
		ID:   "test-builtin-found",
		Name: "Test",
		ABI:  `[{"type":"function","name":"ping","inputs":[],"outputs":[],"stateMutability":"view"}]`,
	})

	b, ok := contract.GetBuiltin("test-builtin-found")
	require.True(t, ok)
	assert.Equal(t, "Test", b.Name)
}

func TestGetBuiltinNotFound(t *testing.T) {
	_, ok := contract.GetBuiltin("this-id-does-not-exist-xyz")
	assert.False(t, ok)
}

func TestAllBuiltinsSorted(t *testing.T) {
	all := contract.AllBuiltins()
	require.GreaterOrEqual(t, len(all), 2)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

// ---------------------------------------------------------------------------
// Builtin descriptors
// ---------------------------------------------------------------------------

func TestBuiltinUniswapFactory(t *testing.T) {
	d, err := contract.Builtin("uniswap-v3-factory", "")
	require.NoError(t, err)
	assert.Equal(t, contract.UniswapV3Factory, d.Address)

	for method, want := range map[string]contract.Mutability{
		"getPool":              contract.View,
		"feeAmountTickSpacing": contract.View,
		"parameters":           contract.View,
		"owner":                contract.View,
		"createPool":           contract.NonPayable,
		"setOwner":             contract.NonPayable,
		"enableFeeAmount":      contract.NonPayable,
	} {
		got, ok := d.Mutability(method)
		require.True(t, ok, method)
		assert.Equal(t, want, got, method)
	}
}

func TestBuiltinOverrideAddress(t *testing.T) {
	d, err := contract.Builtin("uniswap-v3-factory", "0x0227628f3F023bb0B980b67D528571c95c6DaC1c")
	require.NoError(t, err)
	assert.Equal(t, "0x0227628f3F023bb0B980b67D528571c95c6DaC1c", d.Address.Hex())
}

func TestBuiltinERC20NeedsAddress(t *testing.T) {
	_, err := contract.Builtin("erc20", "")
	assert.Error(t, err)

	d, err := contract.Builtin("erc20", "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	require.NoError(t, err)
	_, ok := d.Method("balanceOf")
	assert.True(t, ok)
}

func TestBuiltinUnknown(t *testing.T) {
	_, err := contract.Builtin("nope", "")
	assert.ErrorIs(t, err, contract.ErrContractNotFound)
	assert.ErrorContains(t, err, "known: erc20, uniswap-v3-factory")
}
