package risk

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tsguard/internal/middleware"
	"tsguard/internal/risk"
)

type Predictor interface {
	Predict(ctx context.Context, meta risk.CallMeta) (*risk.Prediction, error)
}

type Handler struct {
	predictor Predictor
}

func NewHandler(predictor Predictor) *Handler {
	return &Handler{predictor: predictor}
}

// PredictCallRisk scores call metadata and returns the banded risk verdict.
func (h *Handler) PredictCallRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var meta risk.CallMeta
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if err := meta.Validate(); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	prediction, err := h.predictor.Predict(ctx, meta)
	if err != nil {
		if errors.Is(err, risk.ErrScorerUnavailable) {
			slog.ErrorContext(ctx, "risk scorer unavailable", "error", err)
			h.writeError(ctx, w, "SCORER_UNAVAILABLE", "risk scorer unavailable", http.StatusServiceUnavailable)
			return
		}
		slog.ErrorContext(ctx, "risk prediction failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "prediction failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(prediction); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
