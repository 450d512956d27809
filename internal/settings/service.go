package settings

import (
	"context"
	"fmt"
)

type Settings struct {
	ID           int    `json:"-"`
	GeminiAPIKey string `json:"gemini_api_key"`
	SearchTopK   int    `json:"search_top_k"`
	ChunkWindow  int    `json:"chunk_window"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

func (s *Settings) Validate() error {
	if s.SearchTopK <= 0 {
		return fmt.Errorf("search_top_k must be positive")
	}
	if s.ChunkWindow <= 0 {
		return fmt.Errorf("chunk_window must be positive")
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkWindow {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_window)")
	}
	return nil
}

type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, set *Settings) error {
	if err := set.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, set)
}
