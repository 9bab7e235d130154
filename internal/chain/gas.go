package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// fallbackTip is used when the node does not implement
// eth_maxPriorityFeePerGas.
var fallbackTip = big.NewInt(1_500_000_000)

// Fees is the pricing for a new transaction. Legacy chains only set
// GasPrice.
type Fees struct {
	BaseFee  *big.Int
	TipCap   *big.Int
	FeeCap   *big.Int
	GasPrice *big.Int
}

// Legacy reports whether the chain has no EIP-1559 base fee.
func (f *Fees) Legacy() bool { return f.BaseFee == nil }

// SuggestFees prices a transaction from the latest block. The fee cap is
// twice the base fee plus the tip so the tx survives a few full blocks.
func (c *Client) SuggestFees(ctx context.Context) (*Fees, error) {
	var head struct {
		BaseFeePerGas *hexutil.Big `json:"baseFeePerGas"`
	}
	if err := c.CallContext(ctx, &head, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, err
	}

	if head.BaseFeePerGas == nil {
		var price hexutil.Big
		if err := c.CallContext(ctx, &price, "eth_gasPrice"); err != nil {
			return nil, err
		}
		return &Fees{GasPrice: price.ToInt()}, nil
	}

	base := head.BaseFeePerGas.ToInt()
	tip := new(big.Int).Set(fallbackTip)
	var suggested hexutil.Big
	if err := c.CallContext(ctx, &suggested, "eth_maxPriorityFeePerGas"); err == nil {
		tip = suggested.ToInt()
	}
	feeCap := new(big.Int).Mul(base, big.NewInt(2))
	feeCap.Add(feeCap, tip)
	return &Fees{BaseFee: base, TipCap: tip, FeeCap: feeCap}, nil
}

// WeiToGwei converts wei to gwei for display.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return f
}
