package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type payoutMsg struct {
	payout application.Payout
	err    error
}

// pullProgressModel spins while the treasury transfer runs, then leaves a
// one-line receipt (or the failure) as its last frame.
type pullProgressModel struct {
	spinner  spinner.Model
	owner    domain.Address
	expected int64
	pull     tea.Cmd
	payout   application.Payout
	err      error
	done     bool
	styles   pullProgressStyles
}

type pullProgressStyles struct {
	amount  lipgloss.Style
	receipt lipgloss.Style
	failure lipgloss.Style
}

func newPullProgressModel(owner domain.Address, expected int64, pull tea.Cmd) pullProgressModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("114"))),
	)

	return pullProgressModel{
		spinner:  s,
		owner:    owner,
		expected: expected,
		pull:     pull,
		styles: pullProgressStyles{
			amount:  lipgloss.NewStyle().Bold(true),
			receipt: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			failure: lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		},
	}
}

func (m pullProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.pull)
}

func (m pullProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case payoutMsg:
		m.done = true
		m.payout = msg.payout
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m pullProgressModel) View() string {
	if !m.done {
		return fmt.Sprintf("%s Transferring %s to %s...", m.spinner.View(), m.styles.amount.Render(humanize.Comma(m.expected)), m.owner.Short())
	}
	if m.err != nil {
		return m.styles.failure.Render("pull failed") + "\n"
	}
	if m.payout.ReceiptID == "" {
		return "nothing to transfer\n"
	}

	return fmt.Sprintf("sent %s %s\n", m.styles.amount.Render(humanize.Comma(m.payout.Amount)), m.styles.receipt.Render("receipt "+m.payout.ReceiptID))
}

// runPullSpinner shows transfer progress on output while pull runs.
func runPullSpinner(
	ctx context.Context,
	output io.Writer,
	owner domain.Address,
	expected int64,
	pull func(context.Context) (application.Payout, error),
) (application.Payout, error) {
	pullCmd := func() tea.Msg {
		payout, err := pull(ctx)
		return payoutMsg{payout: payout, err: err}
	}

	p := tea.NewProgram(
		newPullProgressModel(owner, expected, pullCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.Payout{}, err
	}

	result, ok := finalModel.(pullProgressModel)
	if !ok {
		return application.Payout{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.payout, result.err
}
