package ports

import (
	"context"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
)

// Receipt is the treasury's proof that a transfer was executed.
type Receipt struct {
	ID      string
	To      domain.Address
	Amount  int64
	SentAt  time.Time
	Backend string
}

// Treasury moves funds once the ledger has certified the caller is the owner.
type Treasury interface {
	Transfer(ctx context.Context, to domain.Address, amount int64) (Receipt, error)
}
