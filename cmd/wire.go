package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/donation-portal/internal/adapters/auth"
	summaryadapter "github.com/bnema/donation-portal/internal/adapters/render/summary"
	"github.com/bnema/donation-portal/internal/adapters/repo/memory"
	"github.com/bnema/donation-portal/internal/adapters/repo/postgres"
	tomlrepo "github.com/bnema/donation-portal/internal/adapters/repo/toml"
	"github.com/bnema/donation-portal/internal/adapters/secrets"
	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/config"
	"github.com/bnema/donation-portal/internal/logging"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/rs/zerolog"
)

const (
	configPathEnv = "DP_CONFIG"
	wireTimeout   = 10 * time.Second
)

type app struct {
	cfg             *config.Config
	service         *application.Service
	journal         *tomlrepo.PayoutJournal
	secretStore     ports.SecretStore
	summaryRenderer func(application.Summary, summaryadapter.RenderOptions) (string, error)
	logger          zerolog.Logger
	clock           ports.Clock
	closers         []func()
}

func wireApp() (*app, error) {
	cfg, err := config.Load(os.Getenv(configPathEnv))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.WithLevel(logging.New(cfg.Env, os.Stderr), cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	clock := ports.SystemClock{}
	a := &app{
		cfg:             cfg,
		summaryRenderer: summaryadapter.Render,
		logger:          logger,
		clock:           clock,
	}

	repo, err := a.wireRepository()
	if err != nil {
		a.Close()
		return nil, err
	}

	journal, err := tomlrepo.NewPayoutJournal(cfg.Viper(), clock)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("wire payout journal: %w", err)
	}
	a.journal = journal

	homeDir, err := os.UserHomeDir()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	a.secretStore = secrets.NewFileStore(filepath.Join(homeDir, ".donation-portal", "secrets"))

	a.service = application.NewService(repo, journal, clock, logger)

	return a, nil
}

func (a *app) wireRepository() (ports.LedgerRepository, error) {
	switch a.cfg.Store {
	case config.StoreMemory:
		return memory.NewRepository(), nil
	case config.StorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), wireTimeout)
		defer cancel()

		pool, err := postgres.Open(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("wire postgres repository: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		repo := postgres.NewRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		repo, err := tomlrepo.NewRepository(a.cfg.Viper())
		if err != nil {
			return nil, fmt.Errorf("wire ledger repository: %w", err)
		}
		return repo, nil
	}
}

// tokens resolves the signing secret lazily so commands that never touch
// bearer tokens do not create one.
func (a *app) tokens(ctx context.Context) (*auth.Tokens, error) {
	secret := a.cfg.Auth.TokenSecret
	if secret == "" {
		generated, err := secrets.EnsureSigningKey(ctx, a.secretStore)
		if err != nil {
			return nil, err
		}
		secret = generated
	}

	tokens, err := auth.NewTokens(secret, a.cfg.Auth.TokenTTL, a.clock)
	if err != nil {
		if errors.Is(err, auth.ErrWeakSecret) {
			return nil, fmt.Errorf("%s: %w", config.KeyAuthTokenSecret, err)
		}
		return nil, err
	}

	return tokens, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
