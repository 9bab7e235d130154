package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config holds all w3gate configuration.
type Config struct {
	RequiredChainID int64               `json:"required_chain_id"`
	Contract        Contract            `json:"contract"`
	Wallet          string              `json:"wallet,omitempty"`
	HostURL         string              `json:"host_url,omitempty"` // external wallet JSON-RPC endpoint
	RPCAlgorithm    string              `json:"rpc_algorithm"`      // "fastest" | "round-robin" | "failover"
	CustomRPCs      map[string][]string `json:"custom_rpcs"`
	ConfirmTimeout  Duration            `json:"confirm_timeout"`
	PollInterval    Duration            `json:"poll_interval"`
	LogLevel        string              `json:"log_level"`

	// internal: config dir path used for Save()
	configDir string
}

// Contract selects the contract to drive. Either Builtin or ABIFile supplies
// the ABI; Address may be empty for builtins with a canonical address.
type Contract struct {
	Name    string `json:"name,omitempty" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address"`
	ABIFile string `json:"abi_file,omitempty" yaml:"abi_file"`
	Builtin string `json:"builtin,omitempty" yaml:"builtin"`
}

// Duration is a time.Duration written as "3m" or "2s" in JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}
