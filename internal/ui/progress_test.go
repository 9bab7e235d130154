package ui

import (
	"testing"

	"github.com/Mohsinsiddi/w3gate/internal/chain"
	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/dispatch"
	"github.com/Mohsinsiddi/w3gate/internal/failure"
	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m ProgressModel, msg tea.Msg) (ProgressModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	pm, ok := next.(ProgressModel)
	require.True(t, ok)
	return pm, cmd
}

func TestProgressStepsAdvance(t *testing.T) {
	m := NewProgressModel(target(t), nil)
	m, _ = update(t, m, eventMsg{State: dispatch.Connecting, Method: "getPool"})
	m, _ = update(t, m, eventMsg{State: dispatch.NetworkChecking, Method: "getPool"})

	assert.Equal(t, []string{"Connecting wallet"}, m.done)
	view := m.View()
	assert.Contains(t, view, "✓ Connecting wallet")
	assert.Contains(t, view, "Checking network")
	assert.Contains(t, view, "ctrl+c")
}

func TestProgressSpinnerTicks(t *testing.T) {
	m := NewProgressModel(target(t), nil)
	m, cmd := update(t, m, tickMsg{})
	assert.Equal(t, 1, m.frame)
	assert.NotNil(t, cmd)

	m.outcome = &contract.Outcome{Kind: contract.ReadResult}
	_, cmd = update(t, m, tickMsg{})
	assert.Nil(t, cmd)
}

func TestProgressTerminalQuits(t *testing.T) {
	m := NewProgressModel(target(t), nil)
	m, _ = update(t, m, eventMsg{State: dispatch.Executing, Method: "getPool"})
	m, cmd := update(t, m, eventMsg{State: dispatch.Idle, Method: "getPool", Outcome: &contract.Outcome{
		Kind: contract.ReadResult, Method: "getPool", Values: []any{pool},
	}})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	view := m.View()
	assert.Contains(t, view, "✓ Calling getPool")
	assert.Contains(t, view, pool.Hex())
	assert.NotContains(t, view, "ctrl+c")
}

func TestProgressFailureMarksStep(t *testing.T) {
	m := NewProgressModel(target(t), nil)
	m, _ = update(t, m, eventMsg{State: dispatch.NetworkChecking, Method: "createPool"})
	m, _ = update(t, m, eventMsg{State: dispatch.Failed, Method: "createPool", Outcome: &contract.Outcome{
		Kind: contract.Failure, Method: "createPool", Err: failure.Chain(1, 4, nil),
	}})
	view := m.View()
	assert.Contains(t, view, "✗ Checking network")
	assert.Contains(t, view, failure.WrongNetwork.Message())
}

func TestProgressApproval(t *testing.T) {
	n, err := chain.NewRegistry(nil).GetByChainID(1)
	require.NoError(t, err)

	m := NewProgressModel(target(t), nil)
	reply := make(chan bool, 1)
	m, _ = update(t, m, approvalMsg{approval: wallet.Approval{Kind: wallet.ApproveSwitch, Network: n}, reply: reply})
	assert.Contains(t, m.View(), "Switch")
	assert.Contains(t, m.View(), "[y/N]")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	assert.True(t, <-reply)
	assert.Nil(t, m.question)
	assert.NotContains(t, m.View(), "[y/N]")
}

func TestProgressApprovalDeclinedByEnter(t *testing.T) {
	m := NewProgressModel(target(t), nil)
	reply := make(chan bool, 1)
	m, _ = update(t, m, approvalMsg{approval: wallet.Approval{Kind: wallet.ApproveConnect}, reply: reply})
	_, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, <-reply)
}

func TestProgressCtrlCCancels(t *testing.T) {
	cancelled := false
	m := NewProgressModel(target(t), func() { cancelled = true })
	reply := make(chan bool, 1)
	m, _ = update(t, m, eventMsg{State: dispatch.Connecting})
	m, _ = update(t, m, approvalMsg{approval: wallet.Approval{Kind: wallet.ApproveConnect}, reply: reply})

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, cancelled)
	assert.False(t, <-reply)
	assert.Contains(t, m.View(), "cancelled")
}
