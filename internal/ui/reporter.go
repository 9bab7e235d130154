package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/dispatch"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mattn/go-isatty"
)

// Sink is a dispatch.Reporter that owns terminal resources.
type Sink interface {
	dispatch.Reporter
	Close() error
}

// Target is what an invocation runs against, used to label progress.
type Target struct {
	Contract contract.Descriptor
	Network  *chain.Network // required network, nil if not in the registry
	ChainID  int64
}

func (t Target) networkLabel() string {
	if t.Network != nil {
		return fmt.Sprintf("%s, chain %d", t.Network.DisplayName, t.ChainID)
	}
	return "chain " + strconv.FormatInt(t.ChainID, 10)
}

func (t Target) txURL(hash string) string {
	if t.Network == nil {
		return ""
	}
	return t.Network.TxURL(hash)
}

// StepLabel describes the state an event entered.
func StepLabel(t Target, ev dispatch.Event) string {
	switch ev.State {
	case dispatch.Connecting:
		return "Connecting wallet"
	case dispatch.NetworkChecking:
		return "Checking network (requires " + t.networkLabel() + ")"
	case dispatch.Executing:
		if mut, ok := t.Contract.Mutability(ev.Method); ok && mut == contract.View {
			return "Calling " + ev.Method
		}
		return "Sending " + ev.Method
	case dispatch.Confirming:
		if ev.Outcome != nil {
			return "Submitted " + ev.Outcome.TxHash.Hex() + ", waiting for confirmation"
		}
		return "Waiting for confirmation"
	default:
		return ev.State.String()
	}
}

// RenderOutcome renders a terminal outcome.
func RenderOutcome(t Target, o contract.Outcome) string {
	switch o.Kind {
	case contract.ReadResult:
		var pairs [][2]string
		if m, ok := t.Contract.Method(o.Method); ok {
			for _, f := range contract.Fields(m, o.Values) {
				pairs = append(pairs, [2]string{f.Name, f.Value})
			}
		}
		return KeyValueBlock(o.Method, pairs, false)

	case contract.TxConfirmed:
		hash := o.TxHash.Hex()
		pairs := [][2]string{{"tx", hash}}
		if o.Block != nil {
			pairs = append(pairs,
				[2]string{"block", strconv.FormatUint(o.Block.Number, 10)},
				[2]string{"gas used", strconv.FormatUint(o.Block.GasUsed, 10)},
			)
		}
		if u := t.txURL(hash); u != "" {
			pairs = append(pairs, [2]string{"explorer", u})
		}
		return Success(o.Method+" confirmed") + "\n" + KeyValueBlock("", pairs, false)

	case contract.Failure:
		if o.Err == nil {
			return Err(o.Method + " failed")
		}
		lines := ErrorLines(o.Err, t.Network)
		if o.TxHash != (common.Hash{}) {
			hash := o.TxHash.Hex()
			lines = append(lines, "  "+Meta("tx "+hash))
			if u := t.txURL(hash); u != "" {
				lines = append(lines, "  "+Meta(u))
			}
		}
		return strings.Join(lines, "\n")

	default:
		return ""
	}
}

// PlainReporter prints one line per state and a block for the outcome.
type PlainReporter struct {
	mu     sync.Mutex
	out    io.Writer
	target Target
}

// NewPlainReporter creates a line-oriented reporter.
func NewPlainReporter(out io.Writer, t Target) *PlainReporter {
	return &PlainReporter{out: out, target: t}
}

// Report implements dispatch.Reporter.
func (r *PlainReporter) Report(ev dispatch.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.Terminal() {
		fmt.Fprintln(r.out, RenderOutcome(r.target, *ev.Outcome))
		return
	}
	fmt.Fprintln(r.out, Info(StepLabel(r.target, ev)+"…"))
}

// Close implements Sink.
func (r *PlainReporter) Close() error { return nil }

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewReporter returns the live progress view when out is a terminal and plain
// is not set, and a PlainReporter otherwise.
func NewReporter(out *os.File, t Target, plain bool, cancel func()) Sink {
	if plain || !IsTerminal(out) {
		return NewPlainReporter(out, t)
	}
	return NewProgressReporter(out, t, cancel)
}
