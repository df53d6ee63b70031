package summary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type RenderOptions struct {
	Now time.Time
	// Unit is appended to amounts, e.g. "wei". Empty prints bare numbers.
	Unit string
}

func renderHeader(summary application.Summary, s styles) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.title.Render("Donation Ledger"),
		s.header.Render(fmt.Sprintf("owner: %s  cooldown: %s", summary.Owner.Short(), summary.Cooldown)),
	)
}

func renderTotals(summary application.Summary, unpulled float64, opts RenderOptions, s styles) string {
	toPull := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("to pull:        "),
		s.amount.Render(formatAmount(summary.Withdrawable, opts.Unit)),
		" ",
		renderProgressBar(unpulled, 20, s),
		" ",
		lipgloss.NewStyle().Foreground(interpolateColor(unpulled, 0, 100)).Render(fmt.Sprintf("%2.0f%% unpulled", unpulled)),
	)

	last := "never"
	if !summary.LastDonationAt.IsZero() {
		last = formatWhen(summary.LastDonationAt, opts.Now)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.key.Render("donations:      ")+s.amount.Render(humanize.Comma(int64(summary.DonationCount))),
		s.key.Render("public total:   ")+s.amount.Render(formatAmount(summary.PublicTotal, opts.Unit)),
		s.key.Render("lifetime total: ")+s.amount.Render(formatAmount(summary.LifetimeTotal, opts.Unit)),
		s.key.Render("paid out:       ")+s.amount.Render(formatAmount(summary.PulledTotal, opts.Unit)),
		toPull,
		s.key.Render("last donation:  ")+s.meta.Render(last),
	)
}

func renderRecent(summary application.Summary, opts RenderOptions, s styles) string {
	if len(summary.Recent) == 0 {
		return s.empty.Render("No donations yet.")
	}

	recent := []string{s.key.Render(fmt.Sprintf("recent (%d of %d):", len(summary.Recent), summary.DonationCount))}
	for _, d := range summary.Recent {
		recent = append(recent, "  "+donationLine(d, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, recent...)
}

func renderTop(top domain.Donation, opts RenderOptions, s styles) string {
	if top.IsSentinel() {
		return s.key.Render("top donation: ") + s.empty.Render("none")
	}

	return s.key.Render("top donation: ") + donationLine(top, opts, s)
}

func donationLine(d domain.Donation, opts RenderOptions, s styles) string {
	parts := []string{
		s.amount.Render(formatAmount(d.Amount, opts.Unit)),
		s.meta.Render("from"),
		s.donor.Render(d.Donor.Short()),
	}
	if msg := strings.TrimSpace(d.Message); msg != "" {
		parts = append(parts, s.message.Render(fmt.Sprintf("%q", msg)))
	}
	parts = append(parts, s.meta.Render("("+formatWhen(d.Timestamp, opts.Now)+")"))

	return strings.Join(parts, " ")
}

func formatAmount(amount int64, unit string) string {
	if unit == "" {
		return humanize.Comma(amount)
	}

	return humanize.Comma(amount) + " " + unit
}

func formatWhen(at, now time.Time) string {
	if at.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return at.UTC().Format(time.RFC3339)
	}

	return humanize.RelTime(at, now, "ago", "from now")
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(percent) / 100))
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// interpolateColor maps value onto the 240..255 greyscale ramp.
func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	return lipgloss.Color(fmt.Sprintf("%d", int(240+15*normalized)))
}
