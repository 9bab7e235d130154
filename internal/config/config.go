package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"time"
)

const (
	defaultChainID   = 1
	defaultBuiltin   = "uniswap-v3-factory"
	defaultAlgorithm = "fastest"
	defaultLogLevel  = "info"

	configFile  = "config.json"
	walletsFile = "wallets.json"
	keyringDir  = "keyring"

	// DirEnv overrides the config directory.
	DirEnv = "W3GATE_CONFIG_DIR"
)

// DefaultDir returns $W3GATE_CONFIG_DIR or ~/.w3gate.
func DefaultDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".w3gate"), nil
}

// Load reads config from dir (or creates defaults). dir defaults to
// DefaultDir.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg, err := loadJSON[Config](filepath.Join(dir, configFile), defaults())
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg.configDir = dir
	if cfg.CustomRPCs == nil {
		cfg.CustomRPCs = make(map[string][]string)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, configFile), err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.configDir, configFile), c)
}

// Validate checks values that would otherwise fail deep inside a call.
func (c *Config) Validate() error {
	if c.RequiredChainID <= 0 {
		return fmt.Errorf("required_chain_id must be positive, got %d", c.RequiredChainID)
	}
	switch c.RPCAlgorithm {
	case "fastest", "round-robin", "failover":
	default:
		return fmt.Errorf("rpc_algorithm must be fastest, round-robin or failover, got %q", c.RPCAlgorithm)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("confirm_timeout must be positive, got %s", c.ConfirmTimeout)
	}
	if c.PollInterval <= 0 || c.PollInterval > c.ConfirmTimeout {
		return fmt.Errorf("poll_interval must be positive and below confirm_timeout, got %s", c.PollInterval)
	}
	if c.Contract.Builtin == "" && c.Contract.ABIFile == "" {
		return fmt.Errorf("contract needs a builtin or an abi_file")
	}
	return nil
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"required_chain_id",
		"contract.name",
		"contract.address",
		"contract.abi_file",
		"contract.builtin",
		"wallet",
		"host_url",
		"rpc_algorithm",
		"confirm_timeout",
		"poll_interval",
		"log_level",
	}
}

// Get returns a setting as text.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "required_chain_id":
		return strconv.FormatInt(c.RequiredChainID, 10), nil
	case "contract.name":
		return c.Contract.Name, nil
	case "contract.address":
		return c.Contract.Address, nil
	case "contract.abi_file":
		return c.Contract.ABIFile, nil
	case "contract.builtin":
		return c.Contract.Builtin, nil
	case "wallet":
		return c.Wallet, nil
	case "host_url":
		return c.HostURL, nil
	case "rpc_algorithm":
		return c.RPCAlgorithm, nil
	case "confirm_timeout":
		return c.ConfirmTimeout.String(), nil
	case "poll_interval":
		return c.PollInterval.String(), nil
	case "log_level":
		return c.LogLevel, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set updates a setting from text and validates the result. On error the
// config is unchanged.
func (c *Config) Set(key, value string) error {
	next := *c
	switch key {
	case "required_chain_id":
		id, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return fmt.Errorf("required_chain_id: %w", err)
		}
		next.RequiredChainID = id
	case "contract.name":
		next.Contract.Name = value
	case "contract.address":
		next.Contract.Address = value
	case "contract.abi_file":
		next.Contract.ABIFile = value
	case "contract.builtin":
		next.Contract.Builtin = value
	case "wallet":
		next.Wallet = value
	case "host_url":
		next.HostURL = value
	case "rpc_algorithm":
		next.RPCAlgorithm = value
	case "confirm_timeout", "poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "confirm_timeout" {
			next.ConfirmTimeout = Duration(d)
		} else {
			next.PollInterval = Duration(d)
		}
	case "log_level":
		next.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// AddRPC adds a custom RPC URL for a chain.
func (c *Config) AddRPC(chain, url string) error {
	if c.CustomRPCs == nil {
		c.CustomRPCs = make(map[string][]string)
	}
	if slices.Contains(c.CustomRPCs[chain], url) {
		return fmt.Errorf("RPC %s already exists for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = append(c.CustomRPCs[chain], url)
	return nil
}

// RemoveRPC removes a custom RPC URL for a chain.
func (c *Config) RemoveRPC(chain, url string) error {
	rpcs := c.CustomRPCs[chain]
	idx := slices.Index(rpcs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found for chain %s", url, chain)
	}
	c.CustomRPCs[chain] = slices.Delete(rpcs, idx, idx+1)
	if len(c.CustomRPCs[chain]) == 0 {
		delete(c.CustomRPCs, chain)
	}
	return nil
}

// RPCChains returns the chains with custom RPCs, sorted.
func (c *Config) RPCChains() []string {
	out := make([]string, 0, len(c.CustomRPCs))
	for name := range c.CustomRPCs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where wallet metadata is stored.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// KeyringDir is used by the encrypted file keyring backend.
func (c *Config) KeyringDir() string {
	return filepath.Join(c.configDir, keyringDir)
}

// --- helpers ---

func defaults() *Config {
	return &Config{
		RequiredChainID: defaultChainID,
		Contract:        Contract{Builtin: defaultBuiltin},
		RPCAlgorithm:    defaultAlgorithm,
		CustomRPCs:      make(map[string][]string),
		ConfirmTimeout:  Duration(TxConfirmTimeout),
		PollInterval:    Duration(ReceiptPollInterval),
		LogLevel:        defaultLogLevel,
	}
}

// loadJSON decodes path over base. A missing file returns base unchanged.
func loadJSON[T any](path string, base *T) (*T, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return base, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, base); err != nil {
		return nil, err
	}
	return base, nil
}

func saveJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
