package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3gate/internal/contract"
	"github.com/Mohsinsiddi/w3gate/internal/dispatch"
	"github.com/Mohsinsiddi/w3gate/internal/wallet"
	tea "github.com/charmbracelet/bubbletea"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ErrProgressClosed is returned by Approve once the progress view has exited.
var ErrProgressClosed = errors.New("progress view closed")

type eventMsg dispatch.Event

type approvalMsg struct {
	approval wallet.Approval
	reply    chan bool
}

type approvalDoneMsg struct{}

type tickMsg struct{}

func spinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// ProgressModel is the Bubble Tea model for one invocation.
type ProgressModel struct {
	target      Target
	cancel      func()
	done        []string
	current     string
	frame       int
	question    *approvalMsg
	outcome     *contract.Outcome
	interrupted bool
}

// NewProgressModel creates the model. cancel is called on ctrl+c.
func NewProgressModel(t Target, cancel func()) ProgressModel {
	return ProgressModel{target: t, cancel: cancel}
}

func (m ProgressModel) finished() bool { return m.outcome != nil || m.interrupted }

func (m ProgressModel) Init() tea.Cmd { return spinTick() }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.finished() {
			return m, nil
		}
		m.frame++
		return m, spinTick()

	case eventMsg:
		ev := dispatch.Event(msg)
		if ev.Terminal() {
			m.outcome = ev.Outcome
			m.answer(false)
			return m, tea.Quit
		}
		if m.current != "" {
			m.done = append(m.done, m.current)
		}
		m.current = StepLabel(m.target, ev)

	case approvalMsg:
		m.answer(false)
		m.question = &msg

	case approvalDoneMsg:
		m.question = nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.answer(false)
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "y", "Y":
			m.answer(true)
		case "n", "N", "enter", "esc":
			m.answer(false)
		}
	}
	return m, nil
}

// answer replies to the open question, if any.
func (m *ProgressModel) answer(ok bool) {
	if m.question == nil {
		return
	}
	m.question.reply <- ok
	m.question = nil
}

func (m ProgressModel) View() string {
	var sb strings.Builder
	for _, s := range m.done {
		sb.WriteString(Success(s) + "\n")
	}
	if m.current != "" {
		switch {
		case m.outcome != nil && m.outcome.Kind == contract.Failure:
			sb.WriteString(Err(m.current) + "\n")
		case m.outcome != nil:
			sb.WriteString(Success(m.current) + "\n")
		case m.interrupted:
			sb.WriteString(Warn(m.current+" (cancelled)") + "\n")
		default:
			frame := StyleChain.Render(spinnerFrames[m.frame%len(spinnerFrames)])
			sb.WriteString(frame + " " + m.current + "…\n")
		}
	}
	if m.question != nil {
		sb.WriteString("\n" + Warn(ApprovalQuestion(m.question.approval)) + " " + Meta("[y/N]") + "\n")
	}
	if m.outcome != nil {
		sb.WriteString("\n" + RenderOutcome(m.target, *m.outcome) + "\n")
	} else if !m.interrupted {
		sb.WriteString("\n" + Meta("ctrl+c to abandon") + "\n")
	}
	return sb.String()
}

// ProgressReporter drives a ProgressModel from dispatch events. It also
// answers wallet approvals inside the same view.
type ProgressReporter struct {
	p    *tea.Program
	done chan struct{}
	err  error
}

// NewProgressReporter starts the progress view on out.
func NewProgressReporter(out io.Writer, t Target, cancel func(), opts ...tea.ProgramOption) *ProgressReporter {
	r := &ProgressReporter{done: make(chan struct{})}
	r.p = tea.NewProgram(NewProgressModel(t, cancel), append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)...)
	go func() {
		defer close(r.done)
		_, r.err = r.p.Run()
	}()
	return r
}

// Report implements dispatch.Reporter. It returns after the view has exited
// when ev is terminal.
func (r *ProgressReporter) Report(ev dispatch.Event) {
	r.p.Send(eventMsg(ev))
	if ev.Terminal() {
		<-r.done
	}
}

// Approve implements wallet.Approver.
func (r *ProgressReporter) Approve(ctx context.Context, a wallet.Approval) (bool, error) {
	reply := make(chan bool, 1)
	r.p.Send(approvalMsg{approval: a, reply: reply})
	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		r.p.Send(approvalDoneMsg{})
		return false, ctx.Err()
	case <-r.done:
		return false, ErrProgressClosed
	}
}

// Close stops the view and waits for it to restore the terminal.
func (r *ProgressReporter) Close() error {
	r.p.Quit()
	<-r.done
	return r.err
}
