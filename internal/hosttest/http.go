package hosttest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// Handler serves the host as a JSON-RPC wallet endpoint, so it can be
// dialled by URL like an external wallet.
func (h *Host) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		args := make([]any, len(req.Params))
		for i, p := range req.Params {
			args[i] = p
		}

		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		var result json.RawMessage
		if err := h.CallContext(r.Context(), &result, req.Method, args...); err != nil {
			resp.Error = &rpcError{Code: -32000, Message: err.Error()}
			var coded rpc.Error
			if errors.As(err, &coded) {
				resp.Error.Code = coded.ErrorCode()
			}
		} else {
			if result == nil {
				result = json.RawMessage("null")
			}
			resp.Result = result
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}
