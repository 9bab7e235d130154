package failure

import "fmt"

// Wallet provider error codes (EIP-1193, EIP-3326) and the JSON-RPC codes
// hosts commonly answer with.
const (
	CodeUserRejected       = 4001
	CodeUnauthorized       = 4100
	CodeUnsupportedMethod  = 4200
	CodeDisconnected       = 4900
	CodeChainDisconnected  = 4901
	CodeUnrecognizedChain  = 4902
	CodeMethodNotFound     = -32601
	CodeInvalidParams      = -32602
	CodeExecutionReverted  = 3
	CodeInternalRPCFailure = -32603
)

// ProviderError is the error a host wallet reports on the wire. It satisfies
// go-ethereum's rpc.Error so hosts reached in-process and over JSON-RPC are
// classified the same way.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.Code, e.Message)
}

// ErrorCode implements rpc.Error.
func (e *ProviderError) ErrorCode() int {
	return e.Code
}

// Unsupported reports whether code means the host does not implement the
// requested method.
func Unsupported(code int) bool {
	return code == CodeUnsupportedMethod || code == CodeMethodNotFound
}
