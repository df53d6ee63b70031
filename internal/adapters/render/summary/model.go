package summary

import (
	"errors"
	"io"

	"github.com/bnema/donation-portal/internal/application"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type section int

const (
	sectionHeader section = iota
	sectionTotals
	sectionTop
	sectionRecent
)

// sectionOrder is the top-to-bottom layout of the summary.
var sectionOrder = []section{sectionHeader, sectionTotals, sectionTop, sectionRecent}

type sectionMsg struct {
	section section
}

// model lays the summary out one section per update and quits once the last
// section is in. The share of lifetime donations still to pull is computed
// once up front because both the totals bar and its label read it.
type model struct {
	summary  application.Summary
	opts     RenderOptions
	styles   styles
	unpulled float64
	sections []string
	next     int
}

func newModel(summary application.Summary, opts RenderOptions) model {
	unpulled := 0.0
	if summary.LifetimeTotal > 0 {
		unpulled = float64(summary.Withdrawable) / float64(summary.LifetimeTotal) * 100
	}

	return model{
		summary:  summary,
		opts:     opts,
		styles:   newStyles(),
		unpulled: unpulled,
		sections: make([]string, 0, len(sectionOrder)),
	}
}

func (m model) Init() tea.Cmd {
	return m.requestNext()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	sm, ok := msg.(sectionMsg)
	if !ok {
		return m, nil
	}

	m.sections = append(m.sections, m.renderSection(sm.section))
	m.next++
	if m.next == len(sectionOrder) {
		return m, tea.Quit
	}

	return m, m.requestNext()
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.sections...)
}

func (m model) requestNext() tea.Cmd {
	next := sectionOrder[m.next]
	return func() tea.Msg {
		return sectionMsg{section: next}
	}
}

func (m model) renderSection(sec section) string {
	s := m.styles
	switch sec {
	case sectionHeader:
		return renderHeader(m.summary, s)
	case sectionTotals:
		return s.section.Render(renderTotals(m.summary, m.unpulled, m.opts, s))
	case sectionTop:
		return s.section.Render(renderTop(m.summary.TopDonation, m.opts, s))
	default:
		return s.section.Render(renderRecent(m.summary, m.opts, s))
	}
}

// Render lays out the summary for `dp status`.
func Render(summary application.Summary, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(summary, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
