package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner  = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	donorA = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	donorB = domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

func TestRenderEmptyLedger(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	output, err := Render(application.Summary{
		Owner:       owner,
		Cooldown:    domain.DefaultCooldown,
		TopDonation: domain.NoDonation,
		Recent:      []domain.Donation{},
		CreatedAt:   now,
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Donation Ledger")
	assert.Contains(t, output, "owner: "+owner.Short())
	assert.Contains(t, output, "cooldown: 15m0s")
	assert.Contains(t, output, "top donation: none")
	assert.Contains(t, output, "last donation:  never")
	assert.Contains(t, output, "No donations yet.")
	assert.Contains(t, output, " 0% unpulled")
}

func TestRenderLedgerWithDonations(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	top := domain.Donation{Donor: donorB, Amount: 2500000, Timestamp: now.Add(-10 * time.Minute)}

	output, err := Render(application.Summary{
		Owner:         owner,
		Cooldown:      domain.DefaultCooldown,
		DonationCount: 2,
		PublicTotal:   1250500,
		LifetimeTotal: 2501000,
		PulledTotal:   1250500,
		Withdrawable:  1250500,
		TopDonation:   top,
		Recent: []domain.Donation{
			top,
			{Donor: donorA, Message: "donation 1", Amount: 1000, Timestamp: now.Add(-20 * time.Minute)},
		},
		LastDonationAt: top.Timestamp,
	}, RenderOptions{Now: now, Unit: "wei"})

	require.NoError(t, err)
	assert.Contains(t, output, "donations:      2")
	assert.Contains(t, output, "public total:   1,250,500 wei")
	assert.Contains(t, output, "lifetime total: 2,501,000 wei")
	assert.Contains(t, output, "paid out:       1,250,500 wei")
	assert.Contains(t, output, "to pull:        1,250,500 wei")
	assert.Contains(t, output, "50% unpulled")
	assert.Contains(t, output, "top donation: 2,500,000 wei from "+donorB.Short())
	assert.Contains(t, output, "last donation:  10 minutes ago")
	assert.Contains(t, output, "recent (2 of 2):")
	assert.Contains(t, output, `"donation 1"`)
	assert.Contains(t, output, "20 minutes ago")
	assert.Contains(t, output, "[==========----------]")
}

func TestRenderLaysSectionsOutInOrder(t *testing.T) {
	output, err := Render(application.Summary{
		Owner:       owner,
		TopDonation: domain.NoDonation,
	}, RenderOptions{})
	require.NoError(t, err)

	title := strings.Index(output, "Donation Ledger")
	totals := strings.Index(output, "donations:")
	top := strings.Index(output, "top donation:")
	recent := strings.Index(output, "No donations yet.")
	require.True(t, title >= 0 && totals >= 0 && top >= 0 && recent >= 0, output)
	assert.Less(t, title, totals)
	assert.Less(t, totals, top)
	assert.Less(t, top, recent)
}

func TestModelQuitsAfterLastSection(t *testing.T) {
	m := newModel(application.Summary{Owner: owner, LifetimeTotal: 200, Withdrawable: 50}, RenderOptions{})
	assert.InDelta(t, 25.0, m.unpulled, 0.001)

	var cmd tea.Cmd
	var next tea.Model = m
	for _, sec := range sectionOrder {
		next, cmd = next.Update(sectionMsg{section: sec})
		require.NotNil(t, cmd)
	}

	final := next.(model)
	assert.Len(t, final.sections, len(sectionOrder))
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestFormatWhenWithoutClockUsesTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-01T09:00:00Z", formatWhen(at, time.Time{}))
	assert.Equal(t, "unknown", formatWhen(time.Time{}, at))
}

func TestRenderProgressBarClampsShare(t *testing.T) {
	s := newStyles()

	assert.Equal(t, "[====]", renderProgressBar(150, 4, s))
	assert.Equal(t, "[----]", renderProgressBar(-5, 4, s))
	assert.Empty(t, renderProgressBar(50, 0, s))
}
