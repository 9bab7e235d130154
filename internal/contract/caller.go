package contract

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// view runs eth_call at the latest block and unpacks the result.
func (b *Binding) view(ctx context.Context, method string, data []byte, out chan<- Outcome) {
	msg := map[string]any{
		"to":   b.desc.Address,
		"data": hexutil.Bytes(data),
	}

	var raw hexutil.Bytes
	if err := b.read.CallContext(ctx, &raw, "eth_call", msg, "latest"); err != nil {
		if ctx.Err() != nil {
			return
		}
		fe := callFailure(err, method)
		b.log.Debug("eth_call failed", zap.String("method", method), zap.Error(err))
		out <- Outcome{Kind: Failure, Method: method, Err: fe}
		return
	}

	values, err := b.desc.ABI.Unpack(method, raw)
	if err != nil {
		out <- Outcome{Kind: Failure, Method: method, Err: failure.Wrap(failure.RpcError, err, "decoding %s result", method)}
		return
	}
	out <- Outcome{Kind: ReadResult, Method: method, Values: values}
}

// callFailure classifies a transport error, decoding revert reasons when the
// node returned them.
func callFailure(err error, method string) *failure.Error {
	if reason, ok := revertReason(err); ok {
		return failure.Wrap(failure.RpcError, err, "%s reverted: %s", method, reason)
	}
	return failure.Classify(err, failure.RpcError)
}

func revertReason(err error) (string, bool) {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return "", false
	}
	s, ok := de.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, derr := hexutil.Decode(s)
	if derr != nil {
		return "", false
	}
	reason, uerr := abi.UnpackRevert(data)
	if uerr != nil {
		return "", false
	}
	return reason, true
}
