package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"telegram-tiktok-checker/internal/domain"
	"telegram-tiktok-checker/internal/domain/model"
	"telegram-tiktok-checker/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// checkResponse is the wire shape of a verdict. Detail carries the reason
// code verbatim; localization is a bot concern.
type checkResponse struct {
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	Source    string    `json:"source"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

func toCheckResponse(id string, res *model.CheckResult) checkResponse {
	return checkResponse{
		ID:        id,
		Username:  res.Username,
		Status:    string(res.Status),
		Detail:    res.Detail,
		Source:    string(res.Source),
		LatencyMS: res.Latency.Milliseconds(),
		CheckedAt: res.CheckedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statsHandler returns an http.HandlerFunc that serves usage statistics.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := statsUC.Totals(r.Context())
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// checkGetHandler serves the latest persisted verdict for one username.
func checkGetHandler(checkUC usecase.CheckUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := chi.URLParam(r, "username")

		rec, err := checkUC.Latest(r.Context(), username)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, toCheckResponse(rec.ID, &rec.CheckResult))
		case errors.Is(err, domain.ErrNotFound):
			http.NotFound(w, r)
		case errors.Is(err, domain.ErrInvalidUsername):
			http.Error(w, "Invalid username", http.StatusBadRequest)
		default:
			http.Error(w, "Failed to get check", http.StatusInternalServerError)
		}
	}
}

type checkCreateRequest struct {
	Username string `json:"username" validate:"required,min=2,max=24"`
}

// checkCreateHandler runs a fresh availability check on demand. Malformed
// names still produce a verdict, so the handler only rejects length abuse.
func checkCreateHandler(checkUC usecase.CheckUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "Invalid username: 2-24 characters required", http.StatusUnprocessableEntity)
			return
		}

		// RequestedBy 0 marks API-initiated checks in the history.
		res, err := checkUC.Check(r.Context(), 0, req.Username)
		if err != nil {
			http.Error(w, "Check aborted", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toCheckResponse("", res))
	}
}
