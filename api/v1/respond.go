package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"crmdash/internal/jobs"
	"crmdash/internal/logger"
	shareddomain "crmdash/internal/shared/domain"
)

// envelope enveloppe standard des réponses GET
type envelope struct {
	Data any `json:"data"`
}

// errorBody corps des réponses d'erreur
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Default().WithError(err).Warn("cannot encode response")
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

// statusOf convertit une erreur en statut HTTP. Seule la couche HTTP fait cette conversion.
func statusOf(err error) (int, string) {
	var upstream *jobs.UpstreamError
	switch {
	case errors.Is(err, shareddomain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, shareddomain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, jobs.ErrRunnerUnavailable):
		return http.StatusServiceUnavailable, "forecast runner unavailable"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, "upstream error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeError journalise l'échec de op et répond {"error", "detail"}
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := statusOf(err)
	rlog := logger.FromContext(r.Context()).WithError(err).WithField("op", op)
	if status >= http.StatusInternalServerError {
		rlog.Error("request failed")
	} else {
		rlog.Info("request rejected")
	}
	writeJSON(w, status, errorBody{Error: kind, Detail: err.Error()})
}
