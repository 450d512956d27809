package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nsqio/go-nsq"

	"tsguard/internal/middleware"
	"tsguard/internal/text"
)

const embedTimeout = 60 * time.Second

// EmbedderConsumer handles kb.embed messages: it chunks one document,
// embeds the chunks in a single batch and replaces the document's entries in
// the vector store.
type EmbedderConsumer struct {
	embedder Embedder
	store    VectorStore
	window   int
	overlap  int
}

func NewEmbedderConsumer(e Embedder, s VectorStore, window, overlap int) *EmbedderConsumer {
	return &EmbedderConsumer{embedder: e, store: s, window: window, overlap: overlap}
}

func (h *EmbedderConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}

	var payload KBEmbedPayload
	if err := json.Unmarshal(m.Body, &payload); err != nil {
		// Poison pill: invalid JSON, don't retry
		slog.Error("poison pill: invalid json", "error", err)
		return nil
	}
	if payload.Source == "" || payload.Text == "" {
		slog.Error("poison pill: missing source or text")
		return nil
	}

	ctx := context.Background()
	if payload.CorrelationID != "" {
		ctx = middleware.WithCorrelationID(ctx, payload.CorrelationID)
	}

	window, overlap := h.window, h.overlap
	if payload.Window > 0 {
		window = payload.Window
	}
	if payload.Overlap > 0 {
		overlap = payload.Overlap
	}

	chunks, err := text.Chunk(payload.Text, window, overlap)
	if err != nil {
		// Bad chunking parameters never become valid on redelivery.
		slog.ErrorContext(ctx, "poison pill: invalid chunking parameters", "error", err, "source", payload.Source)
		return nil
	}
	if len(chunks) == 0 {
		return nil
	}

	embedCtx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	vectors, err := h.embedder.EmbedBatch(embedCtx, chunks)
	if err != nil {
		slog.ErrorContext(ctx, "embedding failed", "error", err, "source", payload.Source)
		return err // Retry
	}
	if len(vectors) != len(chunks) {
		slog.ErrorContext(ctx, "embedder returned wrong vector count", "want", len(chunks), "got", len(vectors))
		return nil
	}

	if err := h.store.DeleteBySource(embedCtx, payload.Source); err != nil {
		slog.ErrorContext(ctx, "delete stale chunks failed", "error", err, "source", payload.Source)
		return err // Retry
	}

	for i, content := range chunks {
		chunk := Chunk{
			ID:         uuid.New().String(),
			Content:    content,
			Vector:     vectors[i],
			Source:     payload.Source,
			ChunkIndex: i,
		}
		if err := h.store.StoreChunk(embedCtx, chunk); err != nil {
			slog.ErrorContext(ctx, "store chunk failed", "error", err, "source", payload.Source, "chunk_index", i)
			return err // Retry
		}
	}

	slog.InfoContext(ctx, "document re-embedded", "source", payload.Source, "chunks", len(chunks))
	return nil
}
