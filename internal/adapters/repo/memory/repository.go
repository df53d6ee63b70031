package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
)

// Repository keeps the ledger in process memory. Load and Save copy the
// ledger so callers never share slices or maps with the stored state.
type Repository struct {
	mu     sync.RWMutex
	ledger *domain.Ledger
}

var _ ports.LedgerRepository = (*Repository)(nil)

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Load(ctx context.Context) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ledger{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.ledger == nil {
		return domain.Ledger{}, domain.ErrLedgerNotFound
	}

	return r.ledger.Clone(), nil
}

func (r *Repository) Save(ctx context.Context, ledger domain.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := ledger.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	var current int64
	if r.ledger != nil {
		current = r.ledger.Revision
	}
	if current != ledger.Revision {
		return fmt.Errorf("%w: stored revision %d, saving %d", domain.ErrConcurrentUpdate, current, ledger.Revision)
	}

	stored.Revision++
	r.ledger = &stored
	return nil
}
