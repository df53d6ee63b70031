package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type ledgerRow struct {
	owner         string
	cooldownNS    int64
	publicTotal   int64
	lifetimeTotal int64
	pulledTotal   int64
	topIndex      int
	createdAtNS   int64
	revision      int64
}

type donationRow struct {
	idx         int
	donor       string
	message     string
	amount      int64
	donatedAtNS int64
}

// fakeDB understands exactly the statements the repository issues.
type fakeDB struct {
	mu        sync.Mutex
	ledger    *ledgerRow
	donations []donationRow
	migrated  bool

	failInsertAt int
	commitErr    error
	rollbackErr  error
	rollbacks    int
}

func newFakeDB() *fakeDB {
	return &fakeDB{failInsertAt: -1}
}

func (db *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if sql != schemaSQL {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected exec outside tx: %q", sql)
	}
	db.migrated = true
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	db.mu.Lock()
	defer db.mu.Unlock()

	if sql != selectLedgerSQL {
		return simpleRow{err: fmt.Errorf("unexpected query row: %q", sql)}
	}
	if db.ledger == nil {
		return simpleRow{err: pgx.ErrNoRows}
	}
	row := *db.ledger
	return simpleRow{values: []any{
		row.owner, row.cooldownNS, row.publicTotal, row.lifetimeTotal, row.pulledTotal,
		row.topIndex, row.createdAtNS, row.revision,
	}}
}

func (db *fakeDB) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if sql != selectDonationsSQL {
		return nil, fmt.Errorf("unexpected query: %q", sql)
	}

	values := make([][]any, 0, len(db.donations))
	for _, d := range db.donations {
		values = append(values, []any{d.idx, d.donor, d.message, d.amount, d.donatedAtNS})
	}
	return &sliceRows{values: values, cursor: -1}, nil
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	db.mu.Lock()
	return &fakeTx{db: db}, nil
}

// fakeTx holds the db lock from Begin until Commit or Rollback, which gives
// the same exclusion as SELECT ... FOR UPDATE.
type fakeTx struct {
	pgx.Tx
	db      *fakeDB
	ledger  *ledgerRow
	pending []donationRow
	closed  bool
}

func (tx *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	switch sql {
	case lockLedgerSQL:
		if tx.db.ledger == nil {
			return simpleRow{err: pgx.ErrNoRows}
		}
		return simpleRow{values: []any{tx.db.ledger.revision}}
	case countDonationsSQL:
		return simpleRow{values: []any{len(tx.db.donations)}}
	default:
		return simpleRow{err: fmt.Errorf("unexpected tx query row: %q", sql)}
	}
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch sql {
	case upsertLedgerSQL:
		tx.ledger = &ledgerRow{
			owner:         args[0].(string),
			cooldownNS:    args[1].(int64),
			publicTotal:   args[2].(int64),
			lifetimeTotal: args[3].(int64),
			pulledTotal:   args[4].(int64),
			topIndex:      args[5].(int),
			createdAtNS:   args[6].(int64),
			revision:      args[7].(int64),
		}
		if tx.db.ledger != nil {
			// Owner, cooldown and creation time are fixed at init.
			tx.ledger.owner = tx.db.ledger.owner
			tx.ledger.cooldownNS = tx.db.ledger.cooldownNS
			tx.ledger.createdAtNS = tx.db.ledger.createdAtNS
		}
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case insertDonationSQL:
		idx := args[0].(int)
		if idx == tx.db.failInsertAt {
			return pgconn.CommandTag{}, errors.New("insert failed")
		}
		tx.pending = append(tx.pending, donationRow{
			idx:         idx,
			donor:       args[1].(string),
			message:     args[2].(string),
			amount:      args[3].(int64),
			donatedAtNS: args[4].(int64),
		})
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unexpected tx exec: %q", sql)
	}
}

func (tx *fakeTx) Commit(context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	if tx.db.commitErr != nil {
		return tx.db.commitErr
	}
	tx.closed = true
	defer tx.db.mu.Unlock()

	if tx.ledger != nil {
		tx.db.ledger = tx.ledger
	}
	tx.db.donations = append(tx.db.donations, tx.pending...)
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.db.rollbacks++
	tx.db.mu.Unlock()
	return tx.db.rollbackErr
}

type simpleRow struct {
	values []any
	err    error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type sliceRows struct {
	values [][]any
	cursor int
}

func (r *sliceRows) Close() {}

func (r *sliceRows) Err() error { return nil }

func (r *sliceRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *sliceRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *sliceRows) Next() bool {
	r.cursor++
	return r.cursor < len(r.values)
}

func (r *sliceRows) Scan(dest ...any) error {
	return assign(dest, r.values[r.cursor])
}

func (r *sliceRows) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (r *sliceRows) RawValues() [][]byte { return nil }

func (r *sliceRows) Conn() *pgx.Conn { return nil }

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan %d columns into %d targets", len(values), len(dest))
	}

	for i := range dest {
		switch target := dest[i].(type) {
		case *string:
			*target = values[i].(string)
		case *int64:
			*target = values[i].(int64)
		case *int:
			*target = values[i].(int)
		default:
			return fmt.Errorf("unsupported scan target %T", dest[i])
		}
	}

	return nil
}
