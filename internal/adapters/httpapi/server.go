package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	DefaultAddr         = ":8080"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultIdleTimeout  = 60 * time.Second
	shutdownTimeout     = 5 * time.Second
	maxBodyBytes        = 1 << 16
)

// LedgerService is the part of application.Service the API exposes.
type LedgerService interface {
	AddDonation(ctx context.Context, cmd application.AddDonationCommand) (int, error)
	PullDonations(ctx context.Context, cmd application.PullCommand) (application.Payout, error)
	ResetDonations(ctx context.Context, cmd application.ResetCommand) error
	GetDonation(ctx context.Context, index int) (domain.Donation, error)
	GetAllDonations(ctx context.Context) ([]domain.Donation, error)
	GetTotalDonations(ctx context.Context) (int, error)
	GetTopDonation(ctx context.Context) (domain.Donation, error)
	GetLifetimeDonations(ctx context.Context) (int64, error)
	GetPublicDonations(ctx context.Context) (int64, error)
	GetSummary(ctx context.Context) (application.Summary, error)
	CooldownRemaining(ctx context.Context, donor domain.Address) (time.Duration, error)
}

type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type Server struct {
	svc     LedgerService
	tokens  TokenVerifier
	metrics *Metrics
	clock   ports.Clock
	logger  zerolog.Logger
	opts    Options
	router  chi.Router
}

func NewServer(svc LedgerService, tokens TokenVerifier, clock ports.Clock, logger zerolog.Logger, opts Options) *Server {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}

	s := &Server{
		svc:     svc,
		tokens:  tokens,
		metrics: NewMetrics(),
		clock:   clock,
		logger:  logger,
		opts:    opts,
	}
	s.router = s.routes()
	s.refreshLedgerMetrics(context.Background())

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID, middleware.RealIP, middleware.Recoverer, observe(s.logger, s.metrics))

	r.Get("/v1/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1/donations", func(r chi.Router) {
		r.Get("/", s.listDonations)
		r.Get("/count", s.countDonations)
		r.Get("/top", s.topDonation)
		r.Get("/{index}", s.getDonation)
		r.With(requireCaller(s.tokens)).Post("/", s.addDonation)
	})

	r.Route("/v1/ledger", func(r chi.Router) {
		r.Get("/", s.summary)
		r.Get("/lifetime", s.lifetime)
		r.Get("/public", s.public)
		r.With(requireCaller(s.tokens)).Post("/pull", s.pull)
		r.With(requireCaller(s.tokens)).Post("/reset", s.reset)
	})

	r.Get("/v1/donors/{address}/cooldown", s.cooldown)

	return r
}

// ListenAndServe runs until ctx is canceled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}

	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  s.opts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("http.listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info().Msg("http.stopped")

	return nil
}

func (s *Server) refreshLedgerMetrics(ctx context.Context) {
	summary, err := s.svc.GetSummary(ctx)
	if err != nil {
		return
	}
	s.metrics.observeLedger(summary)
}
