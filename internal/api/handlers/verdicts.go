package handlers

import (
	"errors"
	"mpvrp-verify-service/internal/api/dto"
	"mpvrp-verify-service/internal/ports"
	"mpvrp-verify-service/internal/services"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// VerdictHandler exposes stored verdicts by id.
type VerdictHandler struct {
	Repo ports.VerdictRepository
}

func (h *VerdictHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/verdicts/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	if h.Repo == nil {
		writeError(w, r, http.StatusServiceUnavailable, "verdict storage is not configured")
		return
	}

	rec, err := h.Repo.GetVerdict(r.Context(), id)
	if errors.Is(err, ports.ErrVerdictNotFound) {
		writeError(w, r, http.StatusNotFound, "verdict not found")
		return
	}
	if err != nil {
		zap.L().Error("get verdict failed", zap.String("verdict_id", id), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.VerdictResponse{
		Outcome: services.Outcome(&rec.Verdict),
		Verdict: rec.Verdict,
	})
}
