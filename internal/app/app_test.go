package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"tsguard/internal/app"
	"tsguard/internal/config"
	"tsguard/internal/retrieval"
	"tsguard/internal/triage"
	"tsguard/internal/worker"
)

type stubStore struct{}

func (stubStore) EnsureSchema(ctx context.Context) error                  { return nil }
func (stubStore) Reset(ctx context.Context) error                         { return nil }
func (stubStore) StoreChunk(ctx context.Context, c worker.Chunk) error    { return nil }
func (stubStore) DeleteBySource(ctx context.Context, source string) error { return nil }
func (stubStore) Query(ctx context.Context, v []float32, k int) ([]retrieval.Snippet, error) {
	return nil, nil
}

type stubEmbedder struct{}

type stubPublisher struct{}

func (stubPublisher) Publish(topic string, body []byte) error { return nil }

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{
		ChunkWindow:  1500,
		ChunkOverlap: 250,
		SearchTopK:   4,
		ServerPort:   8081,
		QueryLogPath: t.TempDir() + "/query.log",
		KBDir:        t.TempDir(),
	}

	chat := func(ctx context.Context, messages []triage.Message) (string, error) {
		return "{}", nil
	}

	a, err := app.New(cfg, db, stubStore{}, stubEmbedder{}, chat, stubPublisher{})
	assert.NoError(t, err)
	assert.NotNil(t, a)
	assert.NotNil(t, a.Handler)
	assert.NotNil(t, a.EmbedConsumer)
	assert.NotNil(t, a.Indexer)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	a.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNew_RoutesRegistered(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	cfg := &config.Config{
		ChunkWindow:  1500,
		ChunkOverlap: 250,
		SearchTopK:   4,
		QueryLogPath: t.TempDir() + "/query.log",
		KBDir:        t.TempDir(),
	}

	chat := func(ctx context.Context, messages []triage.Message) (string, error) {
		return "{}", nil
	}

	a, err := app.New(cfg, db, stubStore{}, stubEmbedder{}, chat, stubPublisher{})
	assert.NoError(t, err)

	// Wrong-method requests against registered patterns must 405, not 404.
	for _, route := range []struct{ method, path string }{
		{"GET", "/triage"},
		{"GET", "/predict_call_risk"},
		{"POST", "/kb/search"},
		{"GET", "/kb/rebuild"},
		{"GET", "/kb/documents"},
		{"POST", "/reports"},
		{"POST", "/settings"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		w := httptest.NewRecorder()
		a.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", route.method, route.path)
	}
}
