package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mpvrp-verify-service/internal/api/dto"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/ports"
	"mpvrp-verify-service/internal/services"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// VerifyHandler runs verifications. Cache and Repo are optional.
type VerifyHandler struct {
	Verifier     *services.Verifier
	Cache        ports.VerdictCache
	Repo         ports.VerdictRepository
	MaxBodyBytes int64
}

// Verify checks one instance/solution pair and returns the verdict.
// Inputs that cannot be read at all answer 422 with the offending field.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}

	var req dto.VerifyRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if strings.TrimSpace(req.Instance) == "" {
		writeError(w, r, http.StatusBadRequest, "instance is required")
		return
	}
	if strings.TrimSpace(req.Solution) == "" {
		writeError(w, r, http.StatusBadRequest, "solution is required")
		return
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = services.FormatAuto
	}

	ctx := r.Context()
	log := zap.L().With(zap.String("req_id", obs.RequestID(ctx)))

	svcReq := services.VerifyRequest{
		Instance: []byte(req.Instance),
		Solution: []byte(req.Solution),
		Format:   format,
	}
	fp := services.Fingerprint(svcReq)

	if h.Cache != nil {
		cached, ok, err := h.Cache.Get(ctx, fp)
		if err != nil {
			log.Warn("verdict cache read failed", zap.Error(err))
		}
		if ok {
			writeJSON(w, r, http.StatusOK, dto.VerdictResponse{
				Outcome: services.Outcome(cached),
				Cached:  true,
				Verdict: *cached,
			})
			return
		}
	}

	verdict, err := h.Verifier.Run(ctx, svcReq)
	if err != nil {
		var se *domain.StructuralError
		if errors.As(err, &se) {
			writeJSON(w, r, http.StatusUnprocessableEntity, dto.StructuralErrorResponse{
				Error:  "structural error",
				Field:  se.Field,
				Line:   se.Line,
				Reason: se.Reason,
			})
			return
		}
		log.Error("verify failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.Cache != nil {
		if err := h.Cache.Put(ctx, fp, *verdict); err != nil {
			log.Warn("verdict cache write failed", zap.Error(err))
		}
	}
	if h.Repo != nil {
		rec := ports.VerdictRecord{Verdict: *verdict, Fingerprint: fp, CreatedAt: time.Now().UTC()}
		if err := h.Repo.SaveVerdict(ctx, rec); err != nil {
			log.Error("save verdict failed", zap.String("verdict_id", verdict.ID), zap.Error(err))
		}
	}

	writeJSON(w, r, http.StatusOK, dto.VerdictResponse{
		Outcome: services.Outcome(verdict),
		Verdict: *verdict,
	})
}
