package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ApprovalQuestion phrases an approval request as a yes/no question.
func ApprovalQuestion(a wallet.Approval) string {
	acct := TruncateAddr(a.Account.Hex())
	switch a.Kind {
	case wallet.ApproveConnect:
		return fmt.Sprintf("Connect account %s?", acct)
	case wallet.ApproveSwitch:
		return fmt.Sprintf("Switch %s to %s (chain %d)?", acct, a.Network.DisplayName, a.Network.ChainID)
	case wallet.ApproveSend:
		to := "a new contract"
		if a.To != nil {
			to = a.To.Hex()
		}
		q := fmt.Sprintf("Send a transaction from %s to %s", acct, to)
		if a.Network != nil {
			q += " on " + a.Network.DisplayName
		}
		if len(a.Data) >= 4 {
			q += fmt.Sprintf(" (selector %s, %d bytes)", hexutil.Encode(a.Data[:4]), len(a.Data))
		}
		return q + "?"
	default:
		return fmt.Sprintf("Allow %s?", a.Kind)
	}
}

type answer struct {
	line string
	err  error
}

// Prompter asks for approvals on a line-oriented terminal.
type Prompter struct {
	mu      sync.Mutex
	in      *bufio.Reader
	out     io.Writer
	pending chan answer // read left running by a cancelled prompt
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Approve implements wallet.Approver.
func (p *Prompter) Approve(ctx context.Context, a wallet.Approval) (bool, error) {
	return p.Confirm(ctx, ApprovalQuestion(a))
}

// Confirm asks a yes/no question. Only "y" or "yes" confirms; end of input
// declines.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s %s ", Warn(question), Meta("[y/N]"))

	ch := p.pending
	if ch == nil {
		ch = make(chan answer, 1)
		go func() {
			line, err := p.in.ReadString('\n')
			ch <- answer{line, err}
		}()
	}

	select {
	case <-ctx.Done():
		p.pending = ch
		fmt.Fprintln(p.out)
		return false, ctx.Err()
	case ans := <-ch:
		p.pending = nil
		if ans.err != nil && ans.line == "" {
			if ans.err == io.EOF {
				fmt.Fprintln(p.out)
				return false, nil
			}
			return false, fmt.Errorf("reading answer: %w", ans.err)
		}
		return isYes(ans.line), nil
	}
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
