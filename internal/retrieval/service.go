package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tsguard/internal/settings"
)

// ErrBackendUnavailable reports that the embedding provider or the vector
// store could not serve the request. It is distinct from an empty result set,
// which is a valid answer.
var ErrBackendUnavailable = errors.New("retrieval backend unavailable")

// Snippet is one retrieved knowledge chunk with its provenance.
type Snippet struct {
	Content string `json:"snippet"`
	Source  string `json:"source"`
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type VectorStore interface {
	Query(ctx context.Context, vector []float32, k int) ([]Snippet, error)
}

// SettingsSource exposes the runtime-tunable search settings. Optional; when
// absent the service sticks to its configured default.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Service embeds a query and fetches the nearest knowledge chunks.
//
// The query must be embedded with the same provider used at index time; mixing
// embedding spaces produces meaningless rankings. That alignment is the
// caller's obligation when wiring the service.
type Service struct {
	embedder Embedder
	store    VectorStore
	defaultK int
	settings SettingsSource
	logger   *QueryLogger
}

func NewService(e Embedder, s VectorStore, defaultK int, src SettingsSource, l *QueryLogger) *Service {
	return &Service{embedder: e, store: s, defaultK: defaultK, settings: src, logger: l}
}

// Search returns up to k snippets ordered by descending similarity (tie order
// is store-defined and not stable). A k <= 0 falls back to the stored
// search_top_k setting, then to the configured default when no settings
// source is wired or the lookup fails.
func (s *Service) Search(ctx context.Context, query string, k int) ([]Snippet, error) {
	start := time.Now()
	if k <= 0 {
		k = s.resolveK(ctx)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrBackendUnavailable, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector", ErrBackendUnavailable)
	}

	snippets, err := s.store.Query(ctx, vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: query store: %v", ErrBackendUnavailable, err)
	}

	if s.logger != nil {
		s.logger.Log(QueryLogEntry{
			Query:      query,
			TopK:       k,
			NumResults: len(snippets),
			Duration:   time.Since(start),
		})
	}
	return snippets, nil
}

func (s *Service) resolveK(ctx context.Context) int {
	if s.settings == nil {
		return s.defaultK
	}
	set, err := s.settings.Get(ctx)
	if err != nil || set.SearchTopK <= 0 {
		return s.defaultK
	}
	return set.SearchTopK
}
