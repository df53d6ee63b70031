package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/gofrs/flock"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	ledgerPathKey    = "ledger.path"
	ledgerFileMode   = 0o600
	ledgerDirMode    = 0o700
	ledgerConfigDir  = ".donation-portal"
	ledgerConfigFile = "ledger.toml"
	tempFilePattern  = ".ledger-*.toml.tmp"
	lockFileSuffix   = ".lock"
	lockRetryDelay   = 5 * time.Millisecond
)

type Repository struct {
	ledgerPath string
	mu         *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var (
	_ ports.LedgerRepository = (*Repository)(nil)
	_ ports.LedgerLocker     = (*Repository)(nil)
)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	path := cfg.GetString(ledgerPathKey)
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(homeDir, ledgerConfigDir, ledgerConfigFile)
	}

	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{ledgerPath: path, mu: lockForPath(path)}, nil
}

func (r *Repository) Path() string {
	return r.ledgerPath
}

// Lock takes an exclusive flock on ledger.toml.lock, shared with every other
// dp process using the same ledger path.
func (r *Repository) Lock(ctx context.Context) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(r.ledgerPath), ledgerDirMode); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	fileLock := flock.New(r.ledgerPath + lockFileSuffix)
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock ledger file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("lock ledger file: %w", ctx.Err())
	}

	return fileLock.Unlock, nil
}

func (r *Repository) Load(ctx context.Context) (domain.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ledger{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Ledger{}, err
	}
	if file.Ledger == nil {
		return domain.Ledger{}, domain.ErrLedgerNotFound
	}

	return fromSchema(file)
}

func (r *Repository) Save(ctx context.Context, ledger domain.Ledger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := toSchema(ledger)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	current, err := r.storedRevision()
	if err != nil {
		return err
	}
	if current != ledger.Revision {
		return fmt.Errorf("%w: stored revision %d, saving %d", domain.ErrConcurrentUpdate, current, ledger.Revision)
	}

	return writeTOMLFile(r.ledgerPath, file)
}

func (r *Repository) storedRevision() (int64, error) {
	file, err := r.readSchema()
	if errors.Is(err, domain.ErrLedgerNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if file.Ledger == nil {
		return 0, nil
	}

	return file.Ledger.Revision, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.ledgerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, domain.ErrLedgerNotFound
		}
		return fileSchema{}, fmt.Errorf("read ledger file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("%w: decode ledger file: %v", domain.ErrCorruptLedger, err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve ledger path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeTOMLFile replaces path atomically with the encoded value.
func writeTOMLFile(path string, value any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, ledgerDirMode); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tempFile.Chmod(ledgerFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}

	cleanup = false

	if err := os.Chmod(path, ledgerFileMode); err != nil {
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}

	return nil
}

func toSchema(ledger domain.Ledger) fileSchema {
	donations := make([]donationSchema, 0, len(ledger.Donations))
	for _, d := range ledger.Donations {
		donations = append(donations, donationSchema{
			Donor:     d.Donor.String(),
			Message:   d.Message,
			Amount:    d.Amount,
			Timestamp: formatTime(d.Timestamp),
		})
	}

	return fileSchema{
		Version: currentSchemaVersion,
		Ledger: &ledgerSchema{
			Owner:         ledger.Owner.String(),
			Cooldown:      ledger.Cooldown.String(),
			PublicTotal:   ledger.PublicTotal,
			LifetimeTotal: ledger.LifetimeTotal,
			PulledTotal:   ledger.PulledTotal,
			TopIndex:      ledger.TopIndex(),
			CreatedAt:     formatTime(ledger.CreatedAt),
			Revision:      ledger.Revision + 1,
		},
		Donations: donations,
	}
}

func fromSchema(file fileSchema) (domain.Ledger, error) {
	entry := file.Ledger

	owner, err := domain.ParseAddress(entry.Owner)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: owner: %v", domain.ErrCorruptLedger, err)
	}

	cooldown, err := time.ParseDuration(entry.Cooldown)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: cooldown: %v", domain.ErrCorruptLedger, err)
	}

	createdAt, err := parseTime(entry.CreatedAt)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("%w: created_at: %v", domain.ErrCorruptLedger, err)
	}

	ledger := domain.Ledger{
		Owner:          owner,
		Cooldown:       cooldown,
		Donations:      make([]domain.Donation, 0, len(file.Donations)),
		LastDonationAt: make(map[domain.Address]time.Time),
		Top:            domain.NoDonation,
		PublicTotal:    entry.PublicTotal,
		LifetimeTotal:  entry.LifetimeTotal,
		PulledTotal:    entry.PulledTotal,
		CreatedAt:      createdAt,
		Revision:       entry.Revision,
	}

	for i, raw := range file.Donations {
		donor, err := domain.ParseAddress(raw.Donor)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("%w: donation %d donor: %v", domain.ErrCorruptLedger, i, err)
		}
		at, err := parseTime(raw.Timestamp)
		if err != nil {
			return domain.Ledger{}, fmt.Errorf("%w: donation %d timestamp: %v", domain.ErrCorruptLedger, i, err)
		}

		ledger.Donations = append(ledger.Donations, domain.Donation{
			Donor:     donor,
			Message:   raw.Message,
			Amount:    raw.Amount,
			Timestamp: at,
		})
		ledger.LastDonationAt[donor] = at
	}

	switch {
	case entry.TopIndex == -1:
	case entry.TopIndex >= 0 && entry.TopIndex < len(ledger.Donations):
		ledger.Top = ledger.Donations[entry.TopIndex]
	default:
		return domain.Ledger{}, fmt.Errorf("%w: top_index %d outside history of %d", domain.ErrCorruptLedger, entry.TopIndex, len(ledger.Donations))
	}

	if err := ledger.Validate(); err != nil {
		return domain.Ledger{}, err
	}

	return ledger, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	return time.Parse(time.RFC3339Nano, raw)
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
