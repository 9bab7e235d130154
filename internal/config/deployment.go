package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deployment pins a contract and the chain it lives on. It is read from a
// YAML or JSON file:
//
//	chain_id: 1
//	contract:
//	  name: factory
//	  builtin: uniswap-v3-factory
//	  address: "0x1F98431c8aD98523631AE4a59f267346ea31F984"
type Deployment struct {
	ChainID  int64    `json:"chain_id" yaml:"chain_id"`
	Contract Contract `json:"contract" yaml:"contract"`
}

// LoadDeployment reads a deployment file. The format follows the extension:
// .yaml/.yml or .json. A relative abi_file is resolved against the file's
// directory.
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deployment: %w", err)
	}

	var d Deployment
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	case ".json":
		err = json.Unmarshal(data, &d)
	default:
		return nil, fmt.Errorf("deployment %s: unsupported format %q (want .yaml, .yml or .json)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing deployment %s: %w", path, err)
	}

	if d.ChainID <= 0 {
		return nil, fmt.Errorf("deployment %s: chain_id must be positive", path)
	}
	if d.Contract.Builtin == "" && d.Contract.ABIFile == "" {
		return nil, fmt.Errorf("deployment %s: contract needs a builtin or an abi_file", path)
	}
	if f := d.Contract.ABIFile; f != "" && !filepath.IsAbs(f) {
		d.Contract.ABIFile = filepath.Join(filepath.Dir(path), f)
	}
	return &d, nil
}

// Apply overrides the chain and contract of c. The config on disk is not
// touched.
func (d *Deployment) Apply(c *Config) {
	c.RequiredChainID = d.ChainID
	c.Contract = d.Contract
}
