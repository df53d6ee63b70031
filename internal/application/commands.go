package application

import (
	"time"

	"github.com/bnema/donation-portal/internal/domain"
)

type InitCommand struct {
	Owner    domain.Address
	Cooldown time.Duration
}

type AddDonationCommand struct {
	Caller  domain.Address
	Message string
	Amount  int64
}

type PullCommand struct {
	Caller domain.Address
	// Reset zeroes the public total in the same step once the transfer succeeds.
	Reset bool
}

type ResetCommand struct {
	Caller domain.Address
}

// Payout describes a successful pull.
type Payout struct {
	To        domain.Address
	Amount    int64
	At        time.Time
	ReceiptID string
	Reset     bool
}
