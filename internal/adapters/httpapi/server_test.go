package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/donation-portal/internal/adapters/auth"
	"github.com/bnema/donation-portal/internal/adapters/repo/memory"
	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/domain"
	"github.com/bnema/donation-portal/internal/logging"
	"github.com/bnema/donation-portal/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	owner  = domain.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	donorA = domain.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	donorB = domain.MustParseAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingTreasury struct {
	mu        sync.Mutex
	transfers []int64
}

func (t *recordingTreasury) Transfer(_ context.Context, to domain.Address, amount int64) (ports.Receipt, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transfers = append(t.transfers, amount)
	return ports.Receipt{ID: "receipt-1", To: to, Amount: amount, Backend: "test"}, nil
}

type harness struct {
	t        *testing.T
	server   *httptest.Server
	clock    *fixedClock
	tokens   *auth.Tokens
	treasury *recordingTreasury
}

func newHarness(t *testing.T, initialize bool) *harness {
	t.Helper()

	clock := &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	treasury := &recordingTreasury{}
	svc := application.NewService(memory.NewRepository(), treasury, clock, logging.Nop())
	if initialize {
		_, err := svc.Init(context.Background(), application.InitCommand{Owner: owner, Cooldown: domain.DefaultCooldown})
		require.NoError(t, err)
	}

	tokens, err := auth.NewTokens(testSecret, time.Hour, clock)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(svc, tokens, clock, logging.Nop(), Options{}).Handler())
	t.Cleanup(srv.Close)

	return &harness{t: t, server: srv, clock: clock, tokens: tokens, treasury: treasury}
}

func (h *harness) token(addr domain.Address) string {
	h.t.Helper()
	raw, _, err := h.tokens.Issue(addr, 0)
	require.NoError(h.t, err)
	return raw
}

func (h *harness) do(method, path string, as domain.Address, body string) *http.Response {
	h.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(h.t, err)
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+h.token(as))
	}

	resp, err := h.server.Client().Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[errorBody](t, resp).Error.Code
}

func TestDonateAndReadBack(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodPost, "/v1/donations", donorA, `{"message":"donation 1","amount":1000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, map[string]int{"index": 0}, decode[map[string]int](t, resp))
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	resp = h.do(http.MethodGet, "/v1/donations/0", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[donationJSON](t, resp)
	assert.Equal(t, donorA.String(), got.Donor)
	assert.Equal(t, "donation 1", got.Message)
	assert.Equal(t, int64(1000), got.Amount)

	resp = h.do(http.MethodGet, "/v1/donations/count", "", "")
	assert.Equal(t, map[string]int{"count": 1}, decode[map[string]int](t, resp))

	resp = h.do(http.MethodGet, "/v1/ledger/lifetime", "", "")
	assert.Equal(t, map[string]int64{"lifetime_total": 1000}, decode[map[string]int64](t, resp))

	resp = h.do(http.MethodGet, "/v1/ledger/public", "", "")
	assert.Equal(t, map[string]int64{"public_total": 1000}, decode[map[string]int64](t, resp))
}

func TestDonateWithinCooldownReturns429(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodPost, "/v1/donations", donorA, `{"amount":1000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	h.clock.Advance(5 * time.Minute)
	resp = h.do(http.MethodPost, "/v1/donations", donorA, `{"amount":1000}`)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "601", resp.Header.Get("Retry-After"))
	assert.Equal(t, "cooldown", errorCode(t, resp))

	resp = h.do(http.MethodGet, "/v1/donors/"+donorA.String()+"/cooldown", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, false, body["can_donate"])

	resp = h.do(http.MethodPost, "/v1/donations", donorB, `{"amount":2500}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(http.MethodGet, "/v1/donations/top", "", "")
	assert.Equal(t, donorB.String(), decode[donationJSON](t, resp).Donor)
}

func TestDonateRejectsBadInput(t *testing.T) {
	h := newHarness(t, true)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "negative amount", body: `{"amount":-1}`, status: http.StatusBadRequest, code: "invalid_amount"},
		{name: "missing amount", body: `{"message":"hi"}`, status: http.StatusBadRequest, code: "invalid_amount"},
		{name: "donor in body", body: `{"amount":1,"donor":"` + donorB.String() + `"}`, status: http.StatusBadRequest, code: "invalid_body"},
		{name: "not json", body: `amount=1`, status: http.StatusBadRequest, code: "invalid_body"},
		{name: "trailing garbage", body: `{"amount":1}garbage`, status: http.StatusBadRequest, code: "invalid_body"},
		{name: "second object", body: `{"amount":1}{"amount":2}`, status: http.StatusBadRequest, code: "invalid_body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, "/v1/donations", donorA, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}

	resp := h.do(http.MethodGet, "/v1/donations/count", "", "")
	assert.Equal(t, map[string]int{"count": 0}, decode[map[string]int](t, resp))
}

func TestMutationsRequireBearerToken(t *testing.T) {
	h := newHarness(t, true)

	for _, path := range []string{"/v1/donations", "/v1/ledger/pull", "/v1/ledger/reset"} {
		resp := h.do(http.MethodPost, path, "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/v1/donations", bytes.NewBufferString(`{"amount":1}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := h.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPullAndResetAreOwnerOnly(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodPost, "/v1/donations", donorA, `{"amount":1000}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = h.do(http.MethodPost, "/v1/donations", donorB, `{"amount":2500}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(http.MethodPost, "/v1/ledger/pull", donorA, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "not_owner", errorCode(t, resp))

	resp = h.do(http.MethodPost, "/v1/ledger/reset", donorA, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPost, "/v1/ledger/pull", owner, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	payout := decode[map[string]any](t, resp)
	assert.Equal(t, float64(3500), payout["amount"])
	assert.Equal(t, false, payout["reset"])

	resp = h.do(http.MethodPost, "/v1/ledger/reset", owner, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = h.do(http.MethodGet, "/v1/ledger/public", "", "")
	assert.Equal(t, map[string]int64{"public_total": 0}, decode[map[string]int64](t, resp))
	resp = h.do(http.MethodGet, "/v1/ledger/lifetime", "", "")
	assert.Equal(t, map[string]int64{"lifetime_total": 3500}, decode[map[string]int64](t, resp))

	assert.Equal(t, []int64{3500}, h.treasury.transfers)
}

func TestPullWithResetZeroesPublicTotal(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodPost, "/v1/donations", donorA, `{"amount":700}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(http.MethodPost, "/v1/ledger/pull", owner, `{"reset":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, resp)["reset"])

	resp = h.do(http.MethodGet, "/v1/ledger", "", "")
	summary := decode[summaryJSON](t, resp)
	assert.Equal(t, int64(0), summary.PublicTotal)
	assert.Equal(t, int64(700), summary.LifetimeTotal)
	assert.Equal(t, int64(700), summary.PulledTotal)
	assert.Equal(t, int64(0), summary.Withdrawable)
	require.NotNil(t, summary.TopDonation)
	assert.Equal(t, donorA.String(), summary.TopDonation.Donor)
}

func TestRepeatedPullTransfersOnce(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodPost, "/v1/donations", donorA, `{"amount":300}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	for i := 0; i < 2; i++ {
		resp = h.do(http.MethodPost, "/v1/ledger/pull", owner, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	h.treasury.mu.Lock()
	defer h.treasury.mu.Unlock()
	assert.Equal(t, []int64{300}, h.treasury.transfers)
}

func TestConcurrentUpdateMapsToConflict(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokens(testSecret, time.Hour, clock)
	require.NoError(t, err)
	svc := application.NewService(memory.NewRepository(), nil, clock, logging.Nop())
	srv := NewServer(svc, tokens, clock, logging.Nop(), Options{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/donations", nil)

	srv.writeDomainError(rec, req, fmt.Errorf("save donate: %w", domain.ErrConcurrentUpdate))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "conflict", body.Error.Code)
}

func TestReadErrorsMapToStatus(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodGet, "/v1/donations/0", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "index_out_of_range", errorCode(t, resp))

	resp = h.do(http.MethodGet, "/v1/donations/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodGet, "/v1/donors/nobody/cooldown", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.do(http.MethodGet, "/v1/donations/top", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ZeroAddress.String(), decode[donationJSON](t, resp).Donor)
}

func TestUninitializedLedgerReturns503(t *testing.T) {
	h := newHarness(t, false)

	resp := h.do(http.MethodGet, "/v1/ledger", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "ledger_not_initialized", errorCode(t, resp))
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, true)

	resp := h.do(http.MethodGet, "/v1/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(http.MethodPost, "/v1/donations", donorA, `{"amount":42}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = h.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, `donation_portal_donations_total{result="accepted"} 1`)
	assert.Contains(t, text, "donation_portal_public_total 42")
	assert.Contains(t, text, `donation_portal_http_requests_total{method="GET",route="/v1/healthz",status="200"} 1`)
}

func TestServeStopsOnContextCancel(t *testing.T) {
	clock := &fixedClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := application.NewService(memory.NewRepository(), nil, clock, logging.Nop())
	tokens, err := auth.NewTokens(testSecret, time.Hour, clock)
	require.NoError(t, err)
	server := NewServer(svc, tokens, clock, logging.Nop(), Options{Addr: "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.False(t, errors.Is(err, context.Canceled))
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
