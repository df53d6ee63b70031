package ports

import (
	"context"

	"github.com/bnema/donation-portal/internal/domain"
)

// LedgerRepository persists the single ledger. Load returns
// domain.ErrLedgerNotFound when no ledger has been initialized.
//
// Save is a compare-and-swap on ledger.Revision: it fails with
// domain.ErrConcurrentUpdate when the stored revision differs (a missing
// ledger counts as revision 0) and stores the ledger as Revision+1.
type LedgerRepository interface {
	Load(ctx context.Context) (domain.Ledger, error)
	Save(ctx context.Context, ledger domain.Ledger) error
}

// LedgerLocker is implemented by repositories that can hold a lock shared
// with other processes. The service keeps it from Load to Save so writers
// queue instead of conflicting.
type LedgerLocker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}
