package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	journalPathKey    = "treasury.journal_path"
	journalConfigFile = "payouts.toml"
	journalBackend    = "journal"
)

// PayoutJournal is a Treasury that records every transfer in a TOML file
// instead of moving funds on chain.
type PayoutJournal struct {
	path  string
	clock ports.Clock
	mu    *sync.RWMutex
}

var _ ports.Treasury = (*PayoutJournal)(nil)

func NewPayoutJournal(cfg *viper.Viper, clock ports.Clock) (*PayoutJournal, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	path := cfg.GetString(journalPathKey)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, ledgerConfigDir, journalConfigFile)
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &PayoutJournal{path: path, clock: clock, mu: lockForPath(path)}, nil
}

func (j *PayoutJournal) Transfer(ctx context.Context, to domain.Address, amount int64) (ports.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return ports.Receipt{}, err
	}
	if to.IsZero() {
		return ports.Receipt{}, fmt.Errorf("payee: %w", domain.ErrInvalidAddress)
	}
	if amount <= 0 {
		return ports.Receipt{}, fmt.Errorf("%w: transfer of %d", domain.ErrInvalidAmount, amount)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := j.readSchema()
	if err != nil {
		return ports.Receipt{}, err
	}

	receipt := ports.Receipt{
		ID:      uuid.NewString(),
		To:      to,
		Amount:  amount,
		SentAt:  j.clock.Now(),
		Backend: journalBackend,
	}
	file.Payouts = append(file.Payouts, payoutSchema{
		ID:     receipt.ID,
		To:     receipt.To.String(),
		Amount: receipt.Amount,
		SentAt: formatTime(receipt.SentAt),
	})

	if err := writeTOMLFile(j.path, file); err != nil {
		return ports.Receipt{}, err
	}

	return receipt, nil
}

// List returns recorded payouts, oldest first.
func (j *PayoutJournal) List(ctx context.Context) ([]ports.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	file, err := j.readSchema()
	if err != nil {
		return nil, err
	}

	receipts := make([]ports.Receipt, 0, len(file.Payouts))
	for i, entry := range file.Payouts {
		to, err := domain.ParseAddress(entry.To)
		if err != nil {
			return nil, fmt.Errorf("payout %d: %w", i, err)
		}
		sentAt, err := parseTime(entry.SentAt)
		if err != nil {
			return nil, fmt.Errorf("payout %d sent_at: %w", i, err)
		}
		receipts = append(receipts, ports.Receipt{
			ID:      entry.ID,
			To:      to,
			Amount:  entry.Amount,
			SentAt:  sentAt,
			Backend: journalBackend,
		})
	}

	return receipts, nil
}

func (j *PayoutJournal) readSchema() (journalSchema, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return journalSchema{Version: currentSchemaVersion}, nil
		}
		return journalSchema{}, fmt.Errorf("read payout journal: %w", err)
	}

	var file journalSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return journalSchema{}, fmt.Errorf("decode payout journal: %w", err)
	}
	if file.Version > currentSchemaVersion {
		return journalSchema{}, fmt.Errorf("unsupported payout journal version %d (current %d)", file.Version, currentSchemaVersion)
	}
	if file.Version == 0 {
		file.Version = currentSchemaVersion
	}

	return file, nil
}
