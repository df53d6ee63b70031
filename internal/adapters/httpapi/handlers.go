package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bnema/donation-portal/internal/application"
	"github.com/bnema/donation-portal/internal/domain"
	"github.com/go-chi/chi/v5"
)

const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)

type donationJSON struct {
	Index     *int      `json:"index,omitempty"`
	Donor     string    `json:"donor"`
	Message   string    `json:"message"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

type summaryJSON struct {
	Owner          string         `json:"owner"`
	Cooldown       string         `json:"cooldown"`
	DonationCount  int            `json:"donation_count"`
	PublicTotal    int64          `json:"public_total"`
	LifetimeTotal  int64          `json:"lifetime_total"`
	PulledTotal    int64          `json:"pulled_total"`
	Withdrawable   int64          `json:"withdrawable"`
	TopDonation    *donationJSON  `json:"top_donation"`
	Recent         []donationJSON `json:"recent"`
	CreatedAt      time.Time      `json:"created_at"`
	LastDonationAt *time.Time     `json:"last_donation_at,omitempty"`
}

type addDonationRequest struct {
	Message string `json:"message"`
	Amount  *int64 `json:"amount"`
}

type pullRequest struct {
	Reset bool `json:"reset"`
}

func toDonationJSON(d domain.Donation) donationJSON {
	return donationJSON{
		Donor:     d.Donor.String(),
		Message:   d.Message,
		Amount:    d.Amount,
		Timestamp: d.Timestamp.UTC(),
	}
}

func indexedDonationJSON(index int, d domain.Donation) donationJSON {
	out := toDonationJSON(d)
	out.Index = &index
	return out
}

func toSummaryJSON(summary application.Summary) summaryJSON {
	out := summaryJSON{
		Owner:         summary.Owner.String(),
		Cooldown:      summary.Cooldown.String(),
		DonationCount: summary.DonationCount,
		PublicTotal:   summary.PublicTotal,
		LifetimeTotal: summary.LifetimeTotal,
		PulledTotal:   summary.PulledTotal,
		Withdrawable:  summary.Withdrawable,
		Recent:        make([]donationJSON, 0, len(summary.Recent)),
		CreatedAt:     summary.CreatedAt.UTC(),
	}
	if !summary.TopDonation.IsSentinel() {
		top := toDonationJSON(summary.TopDonation)
		out.TopDonation = &top
	}
	for _, d := range summary.Recent {
		out.Recent = append(out.Recent, toDonationJSON(d))
	}
	if !summary.LastDonationAt.IsZero() {
		last := summary.LastDonationAt.UTC()
		out.LastDonationAt = &last
	}
	return out
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) addDonation(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	var req addDonationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount is required")
		return
	}

	index, err := s.svc.AddDonation(r.Context(), application.AddDonationCommand{
		Caller:  caller,
		Message: req.Message,
		Amount:  *req.Amount,
	})
	if err != nil {
		s.metrics.observeDonation(resultRejected, *req.Amount)
		s.writeDomainError(w, r, err)
		return
	}

	s.metrics.observeDonation(resultAccepted, *req.Amount)
	s.refreshLedgerMetrics(r.Context())
	writeJSON(w, http.StatusCreated, map[string]int{"index": index})
}

func (s *Server) listDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := s.svc.GetAllDonations(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	items := make([]donationJSON, 0, len(donations))
	for i, d := range donations {
		items = append(items, indexedDonationJSON(i, d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getDonation(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", fmt.Sprintf("index %q is not an integer", chi.URLParam(r, "index")))
		return
	}

	donation, err := s.svc.GetDonation(r.Context(), index)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, indexedDonationJSON(index, donation))
}

func (s *Server) countDonations(w http.ResponseWriter, r *http.Request) {
	count, err := s.svc.GetTotalDonations(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) topDonation(w http.ResponseWriter, r *http.Request) {
	top, err := s.svc.GetTopDonation(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDonationJSON(top))
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.GetSummary(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

func (s *Server) lifetime(w http.ResponseWriter, r *http.Request) {
	total, err := s.svc.GetLifetimeDonations(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"lifetime_total": total})
}

func (s *Server) public(w http.ResponseWriter, r *http.Request) {
	total, err := s.svc.GetPublicDonations(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"public_total": total})
}

func (s *Server) pull(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	var req pullRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	payout, err := s.svc.PullDonations(r.Context(), application.PullCommand{Caller: caller, Reset: req.Reset})
	if err != nil {
		s.metrics.observePull(resultRejected)
		s.writeDomainError(w, r, err)
		return
	}

	s.metrics.observePull(resultAccepted)
	s.refreshLedgerMetrics(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"to":         payout.To.String(),
		"amount":     payout.Amount,
		"at":         payout.At.UTC(),
		"receipt_id": payout.ReceiptID,
		"reset":      payout.Reset,
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	if err := s.svc.ResetDonations(r.Context(), application.ResetCommand{Caller: caller}); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.refreshLedgerMetrics(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cooldown(w http.ResponseWriter, r *http.Request) {
	donor, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	remaining, err := s.svc.CooldownRemaining(r.Context(), donor)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"address":           donor.String(),
		"remaining_seconds": remaining.Seconds(),
		"can_donate":        remaining == 0,
	})
}
