package triage

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"tsguard/features/report"
	"tsguard/internal/lang"
	"tsguard/internal/middleware"
	"tsguard/internal/triage"
)

type Triager interface {
	Answer(ctx context.Context, userText, langHint string, k int) (triage.Result, error)
}

type ReportStore interface {
	Insert(ctx context.Context, rep *report.Report) error
}

type Handler struct {
	svc     Triager
	reports ReportStore
}

func NewHandler(svc Triager, reports ReportStore) *Handler {
	return &Handler{svc: svc, reports: reports}
}

type TriageRequest struct {
	ComplaintText string `json:"complaint_text"`
}

type TriageResponse struct {
	Triage   triage.Result `json:"triage"`
	Language string        `json:"language"`
}

// Triage answers a complaint with the structured triage result. The audit
// report write is best effort: a failed insert is logged, never surfaced.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	var req TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.ComplaintText == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "complaint_text is required", http.StatusBadRequest)
		return
	}

	language := lang.Detect(req.ComplaintText)

	result, err := h.svc.Answer(ctx, req.ComplaintText, language, 0)
	if err != nil {
		slog.ErrorContext(ctx, "triage answer failed", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "UPSTREAM_ERROR", "language model unavailable", http.StatusBadGateway)
		return
	}

	if h.reports != nil {
		rep := &report.Report{
			ID:         uuid.New().String(),
			Excerpt:    report.MakeExcerpt(req.ComplaintText),
			Language:   language,
			ScamType:   result.ScamType,
			Confidence: result.Confidence,
		}
		if err := h.reports.Insert(ctx, rep); err != nil {
			slog.WarnContext(ctx, "failed to persist triage report", "error", err, "correlationId", correlationID)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TriageResponse{Triage: result, Language: language}); err != nil {
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
