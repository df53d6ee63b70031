package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/rs/zerolog"
)

var ErrNilTreasury = errors.New("treasury is not configured")

const maxSaveAttempts = 5

// Service is the single writer in front of the ledger. Mutations hold the
// write lock across load, transition and save; queries share the read lock.
// Across processes, the repository's lock (when it has one) and its
// revision check do the same job.
type Service struct {
	mu       sync.RWMutex
	repo     ports.LedgerRepository
	treasury ports.Treasury
	clock    ports.Clock
	logger   zerolog.Logger
}

func NewService(repo ports.LedgerRepository, treasury ports.Treasury, clock ports.Clock, logger zerolog.Logger) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		repo:     repo,
		treasury: treasury,
		clock:    clock,
		logger:   logger,
	}
}

func (s *Service) Init(ctx context.Context, cmd InitCommand) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockStore(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer unlock()

	_, err = s.repo.Load(ctx)
	if err == nil {
		return Summary{}, domain.ErrLedgerExists
	}
	if !errors.Is(err, domain.ErrLedgerNotFound) {
		return Summary{}, fmt.Errorf("load ledger: %w", err)
	}

	ledger, err := domain.NewLedger(cmd.Owner, cmd.Cooldown, s.clock.Now())
	if err != nil {
		return Summary{}, err
	}

	if err := s.repo.Save(ctx, ledger); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			return Summary{}, domain.ErrLedgerExists
		}
		return Summary{}, fmt.Errorf("save ledger: %w", err)
	}

	s.logger.Info().
		Str("owner", ledger.Owner.String()).
		Dur("cooldown", ledger.Cooldown).
		Msg("ledger.initialized")

	return summarize(ledger), nil
}

func (s *Service) AddDonation(ctx context.Context, cmd AddDonationCommand) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var index int
	ledger, err := s.mutate(ctx, "donation", func(ledger *domain.Ledger) error {
		var err error
		index, err = ledger.AddDonation(cmd.Caller, cmd.Message, cmd.Amount, s.clock.Now())
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("donor", cmd.Caller.String()).
				Int64("amount", cmd.Amount).
				Msg("donation.rejected")
		}
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Int("index", index).
		Str("donor", cmd.Caller.String()).
		Int64("amount", cmd.Amount).
		Int64("lifetime_total", ledger.LifetimeTotal).
		Msg("donation.accepted")

	return index, nil
}

// PullDonations records the withdrawal before calling the treasury, so a
// pull that is repeated, or that races another pull, never pays the same
// funds twice. A refused transfer is reverted.
func (s *Service) PullDonations(ctx context.Context, cmd PullCommand) (Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var amount int64
	ledger, err := s.mutate(ctx, "pull", func(ledger *domain.Ledger) error {
		var err error
		amount, err = ledger.AuthorizePull(cmd.Caller)
		if err != nil {
			s.logger.Warn().Err(err).Str("caller", cmd.Caller.String()).Msg("ledger.pull_denied")
			return err
		}
		if amount > 0 && s.treasury == nil {
			return ErrNilTreasury
		}
		return ledger.RecordPull(cmd.Caller, amount)
	})
	if err != nil {
		return Payout{}, err
	}

	payout := Payout{To: ledger.Owner, Amount: amount, At: s.clock.Now()}
	if amount > 0 {
		receipt, err := s.treasury.Transfer(ctx, ledger.Owner, amount)
		if err != nil {
			err = fmt.Errorf("transfer %d to owner: %w", amount, err)
			if _, revertErr := s.mutate(ctx, "pull revert", func(ledger *domain.Ledger) error {
				return ledger.RevertPull(amount)
			}); revertErr != nil {
				s.logger.Error().Err(revertErr).Int64("amount", amount).Msg("ledger.pull_revert_failed")
				return Payout{}, errors.Join(err, fmt.Errorf("revert recorded pull: %w", revertErr))
			}
			return Payout{}, err
		}
		payout.ReceiptID = receipt.ID
		if !receipt.SentAt.IsZero() {
			payout.At = receipt.SentAt
		}
	}

	if cmd.Reset {
		if _, err := s.mutate(ctx, "reset", func(ledger *domain.Ledger) error {
			return ledger.ResetDonations(cmd.Caller)
		}); err != nil {
			// The transfer already happened; surface both facts to the caller.
			return payout, fmt.Errorf("pulled %d but failed to reset public total: %w", amount, err)
		}
		payout.Reset = true
	}

	s.logger.Info().
		Str("owner", ledger.Owner.String()).
		Int64("amount", amount).
		Int64("pulled_total", ledger.PulledTotal).
		Str("receipt", payout.ReceiptID).
		Bool("reset", payout.Reset).
		Msg("ledger.pulled")

	return payout, nil
}

func (s *Service) ResetDonations(ctx context.Context, cmd ResetCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var previous int64
	ledger, err := s.mutate(ctx, "reset", func(ledger *domain.Ledger) error {
		previous = ledger.PublicTotal
		if err := ledger.ResetDonations(cmd.Caller); err != nil {
			s.logger.Warn().Err(err).Str("caller", cmd.Caller.String()).Msg("ledger.reset_denied")
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("previous_public_total", previous).
		Int64("lifetime_total", ledger.LifetimeTotal).
		Msg("ledger.reset")

	return nil
}

func (s *Service) GetDonation(ctx context.Context, index int) (domain.Donation, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return domain.Donation{}, err
	}

	return ledger.Donation(index)
}

func (s *Service) GetAllDonations(ctx context.Context) ([]domain.Donation, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return nil, err
	}

	return ledger.AllDonations(), nil
}

func (s *Service) GetTotalDonations(ctx context.Context) (int, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return 0, err
	}

	return ledger.TotalDonations(), nil
}

func (s *Service) GetTopDonation(ctx context.Context) (domain.Donation, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return domain.Donation{}, err
	}

	return ledger.TopDonation(), nil
}

func (s *Service) GetLifetimeDonations(ctx context.Context) (int64, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return 0, err
	}

	return ledger.LifetimeDonations(), nil
}

func (s *Service) GetPublicDonations(ctx context.Context) (int64, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return 0, err
	}

	return ledger.PublicDonations(), nil
}

func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return Summary{}, err
	}

	return summarize(ledger), nil
}

func (s *Service) CooldownRemaining(ctx context.Context, donor domain.Address) (time.Duration, error) {
	ledger, err := s.read(ctx)
	if err != nil {
		return 0, err
	}

	return ledger.CooldownRemaining(donor, s.clock.Now()), nil
}

// mutate runs one load, transition, save cycle under the store lock. When
// the repository reports another writer got in first, the cycle is rerun on
// fresh state, so every check sees what was actually stored.
func (s *Service) mutate(ctx context.Context, op string, apply func(*domain.Ledger) error) (domain.Ledger, error) {
	for attempt := 1; ; attempt++ {
		ledger, err := s.mutateOnce(ctx, op, apply)
		if !errors.Is(err, domain.ErrConcurrentUpdate) || attempt == maxSaveAttempts {
			return ledger, err
		}

		s.logger.Debug().Str("op", op).Int("attempt", attempt).Msg("ledger.save_conflict")
	}
}

func (s *Service) mutateOnce(ctx context.Context, op string, apply func(*domain.Ledger) error) (domain.Ledger, error) {
	unlock, err := s.lockStore(ctx)
	if err != nil {
		return domain.Ledger{}, err
	}
	defer unlock()

	ledger, err := s.load(ctx)
	if err != nil {
		return domain.Ledger{}, err
	}

	if err := apply(&ledger); err != nil {
		return domain.Ledger{}, err
	}

	if err := s.repo.Save(ctx, ledger); err != nil {
		return domain.Ledger{}, fmt.Errorf("save %s: %w", op, err)
	}

	return ledger, nil
}

func (s *Service) lockStore(ctx context.Context) (func(), error) {
	locker, ok := s.repo.(ports.LedgerLocker)
	if !ok {
		return func() {}, nil
	}

	release, err := locker.Lock(ctx)
	if err != nil {
		return nil, err
	}

	return func() {
		if err := release(); err != nil {
			s.logger.Warn().Err(err).Msg("ledger.unlock_failed")
		}
	}, nil
}

func (s *Service) read(ctx context.Context) (domain.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) (domain.Ledger, error) {
	ledger, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("load ledger: %w", err)
	}

	return ledger, nil
}
