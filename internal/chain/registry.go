package chain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrChainNotFound is returned when a chain is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Network is one EVM chain a wallet can be switched to. Mainnets and their
// testnets are separate entries because switching is by chain id.
type Network struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	ChainID     int64    `json:"chain_id"`
	Currency    string   `json:"currency"`
	RPCs        []string `json:"rpcs"`
	Explorer    string   `json:"explorer"`
	Testnet     bool     `json:"testnet"`
}

// TxURL returns the explorer link for a transaction, or "" if the network
// has no explorer.
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return n.Explorer + "/tx/" + hash
}

// Registry is the chain registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
	byID     map[int64]*Network
}

// NewRegistry returns the built-in networks. custom maps a chain name to RPC
// URLs tried before the built-in ones.
func NewRegistry(custom map[string][]string) *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
		byID:     make(map[int64]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		if urls := custom[n.Name]; len(urls) > 0 {
			n.RPCs = append(append([]string(nil), urls...), n.RPCs...)
		}
		r.byName[n.Name] = n
		r.byID[n.ChainID] = n
	}
	return r
}

// All returns every network sorted by chain id.
func (r *Registry) All() []Network {
	out := append([]Network(nil), r.networks...)
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// GetByName finds a network by its slug name (e.g. "base", "sepolia").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChainNotFound, name)
	}
	return n, nil
}

// GetByChainID finds a network by its numeric chain id.
func (r *Registry) GetByChainID(id int64) (*Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: chain id %d", ErrChainNotFound, id)
	}
	return n, nil
}

// Resolve accepts a network name, a decimal chain id, or a 0x-prefixed hex
// chain id.
func (r *Registry) Resolve(s string) (*Network, error) {
	if id, err := ParseChainID(s); err == nil {
		return r.GetByChainID(id)
	}
	return r.GetByName(s)
}

// HexChainID renders id the way wallets expect it: minimal 0x-prefixed hex.
func HexChainID(id int64) string {
	return hexutil.EncodeUint64(uint64(id))
}

// ParseChainID parses a decimal or 0x-prefixed hex chain id.
func ParseChainID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	base, digits := 10, s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base, digits = 16, s[2:]
	}
	v, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chain id %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("chain id %q out of range", s)
	}
	return v, nil
}

// --- network data ---

func allNetworks() []Network {
	return []Network{
		{
			Name: "ethereum", DisplayName: "Ethereum", ChainID: 1, Currency: "ETH",
			RPCs:     []string{"https://eth.llamarpc.com", "https://ethereum-rpc.publicnode.com"},
			Explorer: "https://etherscan.io",
		},
		{
			Name: "sepolia", DisplayName: "Sepolia", ChainID: 11155111, Currency: "ETH", Testnet: true,
			RPCs:     []string{"https://rpc.sepolia.org", "https://sepolia.gateway.tenderly.co"},
			Explorer: "https://sepolia.etherscan.io",
		},
		{
			Name: "base", DisplayName: "Base", ChainID: 8453, Currency: "ETH",
			RPCs:     []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			Explorer: "https://basescan.org",
		},
		{
			Name: "base-sepolia", DisplayName: "Base Sepolia", ChainID: 84532, Currency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia.base.org"},
			Explorer: "https://sepolia.basescan.org",
		},
		{
			Name: "polygon", DisplayName: "Polygon", ChainID: 137, Currency: "POL",
			RPCs:     []string{"https://polygon-bor-rpc.publicnode.com", "https://polygon-pokt.nodies.app"},
			Explorer: "https://polygonscan.com",
		},
		{
			Name: "amoy", DisplayName: "Polygon Amoy", ChainID: 80002, Currency: "POL", Testnet: true,
			RPCs:     []string{"https://rpc-amoy.polygon.technology"},
			Explorer: "https://amoy.polygonscan.com",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum", ChainID: 42161, Currency: "ETH",
			RPCs:     []string{"https://arb1.arbitrum.io/rpc", "https://arbitrum.llamarpc.com"},
			Explorer: "https://arbiscan.io",
		},
		{
			Name: "arbitrum-sepolia", DisplayName: "Arb Sepolia", ChainID: 421614, Currency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia-rollup.arbitrum.io/rpc"},
			Explorer: "https://sepolia.arbiscan.io",
		},
		{
			Name: "optimism", DisplayName: "Optimism", ChainID: 10, Currency: "ETH",
			RPCs:     []string{"https://mainnet.optimism.io", "https://optimism.llamarpc.com"},
			Explorer: "https://optimistic.etherscan.io",
		},
		{
			Name: "optimism-sepolia", DisplayName: "OP Sepolia", ChainID: 11155420, Currency: "ETH", Testnet: true,
			RPCs:     []string{"https://sepolia.optimism.io"},
			Explorer: "https://sepolia-optimism.etherscan.io",
		},
		{
			Name: "bnb", DisplayName: "BNB Chain", ChainID: 56, Currency: "BNB",
			RPCs:     []string{"https://bsc-dataseed.binance.org", "https://bsc-rpc.publicnode.com"},
			Explorer: "https://bscscan.com",
		},
		{
			Name: "avalanche", DisplayName: "Avalanche", ChainID: 43114, Currency: "AVAX",
			RPCs:     []string{"https://api.avax.network/ext/bc/C/rpc", "https://avalanche-c-chain-rpc.publicnode.com"},
			Explorer: "https://snowtrace.io",
		},
		{
			Name: "celo", DisplayName: "Celo", ChainID: 42220, Currency: "CELO",
			RPCs:     []string{"https://forno.celo.org", "https://celo-rpc.publicnode.com"},
			Explorer: "https://celoscan.io",
		},
		{
			Name: "bnb-testnet", DisplayName: "BSC Testnet", ChainID: 97, Currency: "BNB", Testnet: true,
			RPCs:     []string{"https://data-seed-prebsc-1-s1.binance.org:8545"},
			Explorer: "https://testnet.bscscan.com",
		},
	}
}
