package contract

import (
	"context"
	"errors"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var errAbandoned = errors.New("caller stopped waiting")

// send submits a transaction through the signing capability and waits for
// its receipt.
func (b *Binding) send(ctx context.Context, method string, data []byte, out chan<- Outcome) {
	tx := map[string]any{
		"from": b.sign.Account(),
		"to":   b.desc.Address,
		"data": hexutil.Bytes(data),
	}

	var hash common.Hash
	if err := b.sign.CallContext(ctx, &hash, "eth_sendTransaction", tx); err != nil {
		if ctx.Err() != nil {
			return
		}
		b.log.Debug("eth_sendTransaction failed", zap.String("method", method), zap.Error(err))
		out <- Outcome{Kind: Failure, Method: method, Err: callFailure(err, method)}
		return
	}

	b.log.Info("transaction submitted", zap.String("method", method), zap.String("hash", hash.Hex()))
	out <- Outcome{Kind: TxSubmitted, Method: method, TxHash: hash}

	receipt, err := b.waitForReceipt(ctx, hash)
	switch {
	case errors.Is(err, errAbandoned):
		b.log.Debug("stopped waiting for receipt", zap.String("hash", hash.Hex()))
		return
	case err != nil:
		out <- Outcome{Kind: Failure, Method: method, TxHash: hash, Err: failure.Classify(err, failure.RpcError)}
		return
	}

	blk := &Block{Hash: receipt.BlockHash, GasUsed: receipt.GasUsed}
	if receipt.BlockNumber != nil {
		blk.Number = receipt.BlockNumber.Uint64()
	}
	if receipt.Status == types.ReceiptStatusFailed {
		out <- Outcome{
			Kind:   Failure,
			Method: method,
			TxHash: hash,
			Block:  blk,
			Err:    failure.New(failure.TxReverted, "%s in block %d", hash.Hex(), blk.Number),
		}
		return
	}
	b.log.Info("transaction confirmed", zap.String("hash", hash.Hex()), zap.Uint64("block", blk.Number))
	out <- Outcome{Kind: TxConfirmed, Method: method, TxHash: hash, Block: blk}
}

// waitForReceipt polls until the transaction is mined or the confirmation
// bound expires. The bound covers the polls themselves, so a stalled node
// still ends in Timeout. Failed polls are retried; the transaction is
// already broadcast and may still be mined.
func (b *Binding) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	wctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	var lastErr error
	for {
		var receipt *types.Receipt
		err := b.read.CallContext(wctx, &receipt, "eth_getTransactionReceipt", hash)
		switch {
		case ctx.Err() != nil:
			return nil, errAbandoned
		case wctx.Err() != nil:
			return nil, b.timedOut(hash, lastErr)
		case err != nil:
			lastErr = err
			b.log.Debug("receipt poll failed", zap.String("hash", hash.Hex()), zap.Error(err))
		case receipt != nil:
			return receipt, nil
		}

		select {
		case <-wctx.Done():
			if ctx.Err() != nil {
				return nil, errAbandoned
			}
			return nil, b.timedOut(hash, lastErr)
		case <-ticker.C:
		}
	}
}

func (b *Binding) timedOut(hash common.Hash, lastErr error) *failure.Error {
	return failure.Wrap(failure.Timeout, lastErr, "%s not mined within %s", hash.Hex(), b.timeout)
}
