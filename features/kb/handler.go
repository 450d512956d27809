package kb

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"tsguard/internal/middleware"
	"tsguard/internal/retrieval"
)

type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]retrieval.Snippet, error)
}

type Handler struct {
	searcher Searcher
	service  *Service
}

func NewHandler(searcher Searcher, service *Service) *Handler {
	return &Handler{searcher: searcher, service: service}
}

// Search serves direct knowledge-base lookups. An empty result set is a
// normal 200 response; only a backend outage is an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "q is required", http.StatusBadRequest)
		return
	}

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.writeError(ctx, w, "VALIDATION_ERROR", "k must be a positive integer", http.StatusBadRequest)
			return
		}
		k = parsed
	}

	results, err := h.searcher.Search(ctx, query, k)
	if err != nil {
		if errors.Is(err, retrieval.ErrBackendUnavailable) {
			slog.ErrorContext(ctx, "search backend unavailable", "error", err)
			h.writeError(ctx, w, "BACKEND_UNAVAILABLE", "knowledge base unavailable", http.StatusServiceUnavailable)
			return
		}
		slog.ErrorContext(ctx, "search failed", "error", err)
		h.writeError(ctx, w, "INTERNAL_ERROR", "search failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []retrieval.Snippet{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"results": results}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

type upsertDocumentRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// UpsertDocument queues one knowledge document for asynchronous re-embedding.
// The embed worker replaces the document's chunks without touching the rest
// of the index.
func (h *Handler) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req upsertDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Source == "" || req.Text == "" {
		h.writeError(ctx, w, "VALIDATION_ERROR", "source and text are required", http.StatusBadRequest)
		return
	}

	if err := h.service.QueueDocument(ctx, req.Source, req.Text); err != nil {
		slog.ErrorContext(ctx, "failed to queue document embed", "error", err, "source", req.Source)
		h.writeError(ctx, w, "INTERNAL_ERROR", "failed to queue document", http.StatusInternalServerError)
		return
	}

	slog.InfoContext(ctx, "document queued for embedding", "source", req.Source)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "queued", "source": req.Source}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// Rebuild drops and reindexes the whole knowledge base synchronously.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)

	slog.InfoContext(ctx, "kb rebuild requested", "correlationId", correlationID)

	summary, err := h.service.Rebuild(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "kb rebuild failed", "error", err, "correlationId", correlationID)
		h.writeError(ctx, w, "INTERNAL_ERROR", "rebuild failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": summary}); err != nil {
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
