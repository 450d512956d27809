package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"tsguard/internal/kb"
	"tsguard/internal/text"
	"tsguard/internal/worker"
)

// Summary reports what a rebuild indexed.
type Summary struct {
	ChunksIndexed      int `json:"chunks_indexed"`
	DocumentsProcessed int `json:"documents_processed"`
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Reset(ctx context.Context) error
	StoreChunk(ctx context.Context, chunk worker.Chunk) error
}

// Indexer rebuilds the knowledge-base collection from a set of documents.
type Indexer struct {
	embedder Embedder
	store    VectorStore

	// A rebuild deletes and recreates the collection; running two at once
	// against the same store would interleave destructively.
	mu sync.Mutex
}

func NewIndexer(e Embedder, s VectorStore) *Indexer {
	return &Indexer{embedder: e, store: s}
}

// Build chunks every document with the given window/overlap, embeds each
// document's chunks in one batch call and upserts them under the fixed
// collection. Chunk parameters are per call so a rebuild picks up the current
// runtime settings. Rebuild semantics are full replace: the existing
// collection is dropped before the first insert, so repeated runs over
// identical input never accumulate duplicates. With no documents the store is
// left untouched and a zero summary is returned.
func (ix *Indexer) Build(ctx context.Context, docs []kb.Document, window, overlap int) (*Summary, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if len(docs) == 0 {
		return &Summary{}, nil
	}

	// Chunk everything up front so a configuration error surfaces before any
	// store mutation.
	chunked := make([][]string, len(docs))
	total := 0
	for i, doc := range docs {
		chunks, err := text.Chunk(doc.Text, window, overlap)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", doc.Source, err)
		}
		chunked[i] = chunks
		total += len(chunks)
	}
	if total == 0 {
		return &Summary{DocumentsProcessed: len(docs)}, nil
	}

	if err := ix.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset collection: %w", err)
	}

	summary := &Summary{DocumentsProcessed: len(docs)}
	for i, doc := range docs {
		if len(chunked[i]) == 0 {
			continue
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, chunked[i])
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", doc.Source, err)
		}
		if len(vectors) != len(chunked[i]) {
			return nil, fmt.Errorf("embed %s: expected %d vectors, got %d", doc.Source, len(chunked[i]), len(vectors))
		}

		for j, content := range chunked[i] {
			chunk := worker.Chunk{
				ID:         uuid.New().String(),
				Content:    content,
				Vector:     vectors[j],
				Source:     doc.Source,
				ChunkIndex: j,
			}
			if err := ix.store.StoreChunk(ctx, chunk); err != nil {
				return nil, fmt.Errorf("store chunk %s[%d]: %w", doc.Source, j, err)
			}
			summary.ChunksIndexed++
		}
		slog.InfoContext(ctx, "document indexed", "source", doc.Source, "chunks", len(chunked[i]))
	}

	return summary, nil
}
