package ui

import (
	"fmt"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
)

// Advice returns what the user can do about a failure. required names the
// chain the contract lives on and may be nil.
func Advice(fe *failure.Error, required *chain.Network) string {
	if fe == nil {
		return ""
	}
	switch fe.Kind {
	case failure.NoWalletCapability:
		return "set host_url to a wallet endpoint, or add a wallet with `w3gate wallet add`"
	case failure.UserRejected:
		return "approve the request in the wallet and run the command again"
	case failure.NetworkUnavailable:
		return "check that the wallet is unlocked and reachable"
	case failure.WrongNetwork:
		if required != nil {
			return fmt.Sprintf("switch the wallet to %s (chain %d), or accept the switch prompt", required.DisplayName, required.ChainID)
		}
		return fmt.Sprintf("switch the wallet to chain %d", fe.Required)
	case failure.InvalidMethod:
		return "run `w3gate call --list` to see the contract's methods"
	case failure.ArgumentMismatch:
		return "check the argument count and types against the method signature"
	case failure.RpcError:
		return "the node may be overloaded; try another RPC with `w3gate rpc add`"
	case failure.TxReverted:
		return "the contract rejected the call; check its preconditions"
	case failure.Timeout:
		return "the transaction may still be mined; look it up on the explorer"
	case failure.Busy:
		return "wait for the current operation to finish"
	default:
		return ""
	}
}

// ErrorLines renders a failure as its summary, advice and, where the kind
// allows it, a retry note.
func ErrorLines(fe *failure.Error, required *chain.Network) []string {
	lines := []string{Err(fe.Error())}
	if a := Advice(fe, required); a != "" {
		lines = append(lines, "  "+Hint(a))
	}
	if fe.Kind.Retryable() {
		lines = append(lines, "  "+Retry("this can succeed if retried"))
	}
	return lines
}
