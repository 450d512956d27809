package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsguard/internal/kb"
	"tsguard/internal/text"
	"tsguard/internal/worker"
)

type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedder down")
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

// fakeStore mimics the replace-on-rebuild collection: Reset clears it.
type fakeStore struct {
	chunks    []worker.Chunk
	resets    int
	failReset bool
}

func (f *fakeStore) Reset(ctx context.Context) error {
	if f.failReset {
		return errors.New("weaviate down")
	}
	f.resets++
	f.chunks = nil
	return nil
}

func (f *fakeStore) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	f.chunks = append(f.chunks, chunk)
	return nil
}

func TestIndexer_Build(t *testing.T) {
	docs := []kb.Document{
		{Text: strings.Repeat("a", 25), Source: "a.md"},
		{Text: strings.Repeat("b", 5), Source: "b.txt"},
	}

	t.Run("Chunks and stores every document", func(t *testing.T) {
		e := &fakeEmbedder{}
		s := &fakeStore{}
		ix := NewIndexer(e, s)

		summary, err := ix.Build(context.Background(), docs, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.DocumentsProcessed)
		assert.Equal(t, 4, summary.ChunksIndexed) // 3 chunks of a.md + 1 of b.txt
		assert.Equal(t, 1, s.resets)
		assert.Len(t, s.chunks, 4)
		// One batch embed call per document.
		assert.Equal(t, 2, e.calls)
		for _, c := range s.chunks {
			assert.NotEmpty(t, c.ID)
			assert.NotEmpty(t, c.Source)
			assert.NotNil(t, c.Vector)
		}
	})

	t.Run("Rebuild replaces instead of accumulating", func(t *testing.T) {
		s := &fakeStore{}
		ix := NewIndexer(&fakeEmbedder{}, s)

		_, err := ix.Build(context.Background(), docs, 10, 0)
		require.NoError(t, err)
		summary, err := ix.Build(context.Background(), docs, 10, 0)
		require.NoError(t, err)

		assert.Equal(t, 4, summary.ChunksIndexed)
		assert.Len(t, s.chunks, 4, "second rebuild must not duplicate chunks")
		assert.Equal(t, 2, s.resets)
	})

	t.Run("No documents is a zero-count no-op", func(t *testing.T) {
		s := &fakeStore{}
		ix := NewIndexer(&fakeEmbedder{}, s)

		summary, err := ix.Build(context.Background(), nil, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, &Summary{}, summary)
		assert.Equal(t, 0, s.resets, "empty input must not mutate the store")
	})

	t.Run("Invalid chunking config fails before any mutation", func(t *testing.T) {
		s := &fakeStore{}
		ix := NewIndexer(&fakeEmbedder{}, s)

		_, err := ix.Build(context.Background(), docs, 10, 10)
		assert.ErrorIs(t, err, text.ErrInvalidChunking)
		assert.Equal(t, 0, s.resets)
		assert.Empty(t, s.chunks)
	})

	t.Run("Chunk parameters are applied per call", func(t *testing.T) {
		s := &fakeStore{}
		ix := NewIndexer(&fakeEmbedder{}, s)

		summary, err := ix.Build(context.Background(), docs, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.ChunksIndexed)

		summary, err = ix.Build(context.Background(), docs, 25, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.ChunksIndexed, "a wider window must produce fewer chunks")
	})

	t.Run("Embedder failure aborts the build", func(t *testing.T) {
		ix := NewIndexer(&fakeEmbedder{fail: true}, &fakeStore{})
		_, err := ix.Build(context.Background(), docs, 10, 0)
		assert.Error(t, err)
	})

	t.Run("Store reset failure aborts the build", func(t *testing.T) {
		ix := NewIndexer(&fakeEmbedder{}, &fakeStore{failReset: true})
		_, err := ix.Build(context.Background(), docs, 10, 0)
		assert.Error(t, err)
	})
}
