package application

import (
	"time"

	"github.com/bnema/donation-portal/internal/domain"
)

const summaryRecentLimit = 5

type Summary struct {
	Owner          domain.Address
	Cooldown       time.Duration
	DonationCount  int
	PublicTotal    int64
	LifetimeTotal  int64
	PulledTotal    int64
	Withdrawable   int64
	TopDonation    domain.Donation
	Recent         []domain.Donation
	CreatedAt      time.Time
	LastDonationAt time.Time
}

func summarize(ledger domain.Ledger) Summary {
	summary := Summary{
		Owner:         ledger.Owner,
		Cooldown:      ledger.Cooldown,
		DonationCount: ledger.TotalDonations(),
		PublicTotal:   ledger.PublicDonations(),
		LifetimeTotal: ledger.LifetimeDonations(),
		PulledTotal:   ledger.PulledTotal,
		Withdrawable:  ledger.Withdrawable(),
		TopDonation:   ledger.TopDonation(),
		CreatedAt:     ledger.CreatedAt,
	}

	all := ledger.AllDonations()
	if len(all) == 0 {
		summary.Recent = []domain.Donation{}
		return summary
	}

	summary.LastDonationAt = all[len(all)-1].Timestamp

	start := len(all) - summaryRecentLimit
	if start < 0 {
		start = 0
	}
	recent := make([]domain.Donation, 0, len(all)-start)
	for i := len(all) - 1; i >= start; i-- {
		recent = append(recent, all[i])
	}
	summary.Recent = recent

	return summary
}
