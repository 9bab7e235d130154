package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mixedABI = `[
  {"type":"function","name":"get","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
  {"type":"function","name":"hash","inputs":[{"name":"x","type":"bytes"}],"outputs":[{"name":"","type":"bytes32"}],"stateMutability":"pure"},
  {"type":"function","name":"set","inputs":[{"name":"v","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
  {"type":"function","name":"deposit","inputs":[],"outputs":[],"stateMutability":"payable"}
]`

func TestNewDescriptor(t *testing.T) {
	d, err := contract.NewDescriptor("store", "0x5FbDB2315678afecb367f032d93F642f64180aa3", []byte(mixedABI))
	require.NoError(t, err)
	assert.Equal(t, "store", d.Name)
	assert.Equal(t, []string{"get", "hash"}, d.ReadMethods())
	assert.Equal(t, []string{"deposit", "set"}, d.WriteMethods())
}

func TestNewDescriptorInvalidAddress(t *testing.T) {
	_, err := contract.NewDescriptor("store", "0x1234", []byte(mixedABI))
	assert.Error(t, err)
}

func TestNewDescriptorInvalidABI(t *testing.T) {
	_, err := contract.NewDescriptor("store", "0x5FbDB2315678afecb367f032d93F642f64180aa3", []byte(`[{"type":`))
	assert.Error(t, err)
}

func TestPureIsViewPayableIsWrite(t *testing.T) {
	d, err := contract.NewDescriptor("store", "0x5FbDB2315678afecb367f032d93F642f64180aa3", []byte(mixedABI))
	require.NoError(t, err)

	m, ok := d.Mutability("hash")
	require.True(t, ok)
	assert.Equal(t, contract.View, m)

	m, ok = d.Mutability("deposit")
	require.True(t, ok)
	assert.Equal(t, contract.NonPayable, m)

	_, ok = d.Mutability("missing")
	assert.False(t, ok)
}

func TestSignature(t *testing.T) {
	d, err := contract.Builtin("uniswap-v3-factory", "")
	require.NoError(t, err)

	m, _ := d.Method("getPool")
	assert.Equal(t, "getPool(address, address, uint24) returns (address)", contract.Signature(m))

	m, _ = d.Method("createPool")
	assert.Equal(t, "createPool(address tokenA, address tokenB, uint24 fee) returns (address)", contract.Signature(m))
}
