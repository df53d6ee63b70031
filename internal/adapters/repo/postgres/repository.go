package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Timestamps are stored as unix nanoseconds; timestamptz keeps only
// microseconds, which is not enough to replay a strict cooldown window.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledger (
	id             SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	owner          TEXT     NOT NULL,
	cooldown_ns    BIGINT   NOT NULL CHECK (cooldown_ns >= 0),
	public_total   BIGINT   NOT NULL CHECK (public_total >= 0),
	lifetime_total BIGINT   NOT NULL CHECK (lifetime_total >= 0),
	pulled_total   BIGINT   NOT NULL DEFAULT 0 CHECK (pulled_total >= 0),
	top_index      INTEGER  NOT NULL,
	created_at_ns  BIGINT   NOT NULL,
	revision       BIGINT   NOT NULL DEFAULT 0
);

ALTER TABLE ledger ADD COLUMN IF NOT EXISTS pulled_total BIGINT NOT NULL DEFAULT 0;
ALTER TABLE ledger ADD COLUMN IF NOT EXISTS revision BIGINT NOT NULL DEFAULT 0;

CREATE TABLE IF NOT EXISTS donations (
	idx           INTEGER PRIMARY KEY CHECK (idx >= 0),
	donor         TEXT    NOT NULL,
	message       TEXT    NOT NULL DEFAULT '',
	amount        BIGINT  NOT NULL CHECK (amount >= 0),
	donated_at_ns BIGINT  NOT NULL
);
`

const (
	selectLedgerSQL = `
SELECT owner, cooldown_ns, public_total, lifetime_total, pulled_total, top_index, created_at_ns, revision
FROM ledger
WHERE id = 1;
`
	selectDonationsSQL = `
SELECT idx, donor, message, amount, donated_at_ns
FROM donations
ORDER BY idx;
`
	lockLedgerSQL = `
SELECT revision
FROM ledger
WHERE id = 1
FOR UPDATE;
`
	countDonationsSQL = `
SELECT COUNT(*)
FROM donations;
`
	upsertLedgerSQL = `
INSERT INTO ledger (id, owner, cooldown_ns, public_total, lifetime_total, pulled_total, top_index, created_at_ns, revision)
VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	public_total = EXCLUDED.public_total,
	lifetime_total = EXCLUDED.lifetime_total,
	pulled_total = EXCLUDED.pulled_total,
	top_index = EXCLUDED.top_index,
	revision = EXCLUDED.revision;
`
	insertDonationSQL = `
INSERT INTO donations (idx, donor, message, amount, donated_at_ns)
VALUES ($1, $2, $3, $4, $5);
`
)

// ErrHistoryRewritten is returned when a save would drop donations that are
// already stored. The donations table is append only.
var ErrHistoryRewritten = errors.New("stored donation history is longer than the ledger being saved")

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repository struct {
	db DB
}

var _ ports.LedgerRepository = (*Repository)(nil)

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the ledger tables when they do not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}

	return nil
}

func (r *Repository) Load(ctx context.Context) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ledger{}, err
	}

	var (
		rawOwner    string
		cooldownNS  int64
		topIndex    int
		createdAtNS int64
		ledger      domain.Ledger
	)
	err := r.db.QueryRow(ctx, selectLedgerSQL).Scan(
		&rawOwner, &cooldownNS, &ledger.PublicTotal, &ledger.LifetimeTotal, &ledger.PulledTotal,
		&topIndex, &createdAtNS, &ledger.Revision,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ledger{}, domain.ErrLedgerNotFound
		}
		return domain.Ledger{}, fmt.Errorf("select ledger: %w", err)
	}

	owner, err := domain.ParseAddress(rawOwner)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: owner: %v", domain.ErrCorruptLedger, err)
	}
	ledger.Owner = owner
	ledger.Cooldown = time.Duration(cooldownNS)
	ledger.CreatedAt = fromUnixNano(createdAtNS)
	ledger.Top = domain.NoDonation
	ledger.LastDonationAt = map[domain.Address]time.Time{}

	rows, err := r.db.Query(ctx, selectDonationsSQL)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("select donations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			idx        int
			rawDonor   string
			donation   domain.Donation
			donatedAtN int64
		)
		if err := rows.Scan(&idx, &rawDonor, &donation.Message, &donation.Amount, &donatedAtN); err != nil {
			return domain.Ledger{}, fmt.Errorf("scan donation: %w", err)
		}
		if idx != len(ledger.Donations) {
			return domain.Ledger{}, fmt.Errorf("%w: donation index %d, expected %d", domain.ErrCorruptLedger, idx, len(ledger.Donations))
		}

		donor, err := domain.ParseAddress(rawDonor)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("%w: donation %d donor: %v", domain.ErrCorruptLedger, idx, err)
		}
		donation.Donor = donor
		donation.Timestamp = fromUnixNano(donatedAtN)

		ledger.Donations = append(ledger.Donations, donation)
		ledger.LastDonationAt[donor] = donation.Timestamp
	}
	if err := rows.Err(); err != nil {
		return domain.Ledger{}, fmt.Errorf("iterate donations: %w", err)
	}

	switch {
	case topIndex == -1:
	case topIndex >= 0 && topIndex < len(ledger.Donations):
		ledger.Top = ledger.Donations[topIndex]
	default:
		return domain.Ledger{}, fmt.Errorf("%w: top_index %d outside history of %d", domain.ErrCorruptLedger, topIndex, len(ledger.Donations))
	}

	if err := ledger.Validate(); err != nil {
		return domain.Ledger{}, err
	}

	return ledger, nil
}

// Save writes the ledger row and appends donations not yet stored, in one
// transaction holding the ledger row lock. The row lock only covers the
// save itself; a writer that loaded an older revision is turned away with
// domain.ErrConcurrentUpdate.
func (r *Repository) Save(ctx context.Context, ledger domain.Ledger) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	var storedRevision int64
	if err := tx.QueryRow(ctx, lockLedgerSQL).Scan(&storedRevision); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("lock ledger row: %w", err)
	}
	if storedRevision != ledger.Revision {
		return fmt.Errorf("%w: stored revision %d, saving %d", domain.ErrConcurrentUpdate, storedRevision, ledger.Revision)
	}

	var stored int
	if err := tx.QueryRow(ctx, countDonationsSQL).Scan(&stored); err != nil {
		return fmt.Errorf("count donations: %w", err)
	}
	if stored > len(ledger.Donations) {
		return fmt.Errorf("%w: %d stored, %d in ledger", ErrHistoryRewritten, stored, len(ledger.Donations))
	}

	if _, err := tx.Exec(ctx, upsertLedgerSQL,
		ledger.Owner.String(),
		int64(ledger.Cooldown),
		ledger.PublicTotal,
		ledger.LifetimeTotal,
		ledger.PulledTotal,
		ledger.TopIndex(),
		toUnixNano(ledger.CreatedAt),
		ledger.Revision+1,
	); err != nil {
		return fmt.Errorf("upsert ledger: %w", err)
	}

	for idx := stored; idx < len(ledger.Donations); idx++ {
		d := ledger.Donations[idx]
		if _, err := tx.Exec(ctx, insertDonationSQL, idx, d.Donor.String(), d.Message, d.Amount, toUnixNano(d.Timestamp)); err != nil {
			return fmt.Errorf("insert donation %d: %w", idx, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}

	return nil
}

func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}

func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}

	return time.Unix(0, ns).UTC()
}
