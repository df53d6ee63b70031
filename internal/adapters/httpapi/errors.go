package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bnema/donation-portal/internal/domain"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeDomainError is the single place ledger errors become HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var cooldown *domain.CooldownError
	switch {
	case errors.As(err, &cooldown):
		w.Header().Set("Retry-After", retryAfterSeconds(cooldown.RetryAt.Sub(s.clock.Now())+time.Nanosecond))
		writeError(w, http.StatusTooManyRequests, "cooldown", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, domain.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, "index_out_of_range", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, domain.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, domain.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrLedgerNotFound):
		writeError(w, http.StatusServiceUnavailable, "ledger_not_initialized", "ledger has not been initialized")
	default:
		s.logger.Error().
			Err(err).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("http.internal_error")
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
