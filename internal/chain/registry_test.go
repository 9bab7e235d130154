package chain_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryHasAllChains(t *testing.T) {
	registry := chain.NewRegistry(nil)
	assert.Equal(t, 14, len(registry.All()))
}

func TestRegistryAllSortedByChainID(t *testing.T) {
	all := chain.NewRegistry(nil).All()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ChainID, all[i].ChainID)
	}
}

func TestRegistryGetByName(t *testing.T) {
	registry := chain.NewRegistry(nil)

	tests := []struct {
		name    string
		chainID int64
	}{
		{"ethereum", 1},
		{"sepolia", 11155111},
		{"base", 8453},
		{"polygon", 137},
		{"arbitrum", 42161},
		{"optimism", 10},
		{"bnb", 56},
		{"avalanche", 43114},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := registry.GetByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.chainID, n.ChainID)
		})
	}
}

func TestRegistryGetByNameCaseInsensitive(t *testing.T) {
	n, err := chain.NewRegistry(nil).GetByName("Base")
	require.NoError(t, err)
	assert.Equal(t, "base", n.Name)
}

func TestRegistryGetUnknownChain(t *testing.T) {
	registry := chain.NewRegistry(nil)
	_, err := registry.GetByName("unknownchain")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)

	_, err = registry.GetByChainID(999999)
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestAllChainsHaveRPCAndExplorer(t *testing.T) {
	for _, n := range chain.NewRegistry(nil).All() {
		t.Run(n.Name, func(t *testing.T) {
			assert.NotEmpty(t, n.RPCs)
			assert.NotEmpty(t, n.Explorer)
			assert.NotEmpty(t, n.Currency)
		})
	}
}

func TestRegistryCustomRPCsFirst(t *testing.T) {
	registry := chain.NewRegistry(map[string][]string{"base": {"https://my-node.example"}})
	n, err := registry.GetByName("base")
	require.NoError(t, err)
	assert.Equal(t, "https://my-node.example", n.RPCs[0])
	assert.Contains(t, n.RPCs, "https://mainnet.base.org")

	// Other registries are unaffected.
	plain, _ := chain.NewRegistry(nil).GetByName("base")
	assert.NotContains(t, plain.RPCs, "https://my-node.example")
}

func TestRegistryResolve(t *testing.T) {
	registry := chain.NewRegistry(nil)

	for _, in := range []string{"sepolia", "11155111", "0xaa36a7"} {
		n, err := registry.Resolve(in)
		require.NoError(t, err, in)
		assert.Equal(t, "sepolia", n.Name)
	}

	_, err := registry.Resolve("12345")
	assert.ErrorIs(t, err, chain.ErrChainNotFound)
}

func TestHexChainID(t *testing.T) {
	assert.Equal(t, "0x1", chain.HexChainID(1))
	assert.Equal(t, "0x2105", chain.HexChainID(8453))
	assert.Equal(t, "0xaa36a7", chain.HexChainID(11155111))
}

func TestParseChainID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{"8453", 8453, true},
		{"0x2105", 8453, true},
		{"0X1", 1, true},
		{" 10 ", 10, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"0x", 0, false},
		{"base", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := chain.ParseChainID(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTxURL(t *testing.T) {
	n, _ := chain.NewRegistry(nil).GetByName("ethereum")
	assert.Equal(t, "https://etherscan.io/tx/0xabc", n.TxURL("0xabc"))
	assert.Empty(t, (&chain.Network{}).TxURL("0xabc"))
}
