package kb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"tsguard/internal/config"
	"tsguard/internal/ingest"
	kbload "tsguard/internal/kb"
	"tsguard/internal/middleware"
	"tsguard/internal/settings"
	"tsguard/internal/worker"
)

type Indexer interface {
	Build(ctx context.Context, docs []kbload.Document, window, overlap int) (*ingest.Summary, error)
}

// SettingsSource exposes the stored chunking parameters so a rebuild picks up
// whatever was last PUT to /settings rather than the boot-time defaults.
type SettingsSource interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

// Publisher enqueues a message on a topic. Satisfied by *nsq.Producer.
type Publisher interface {
	Publish(topic string, body []byte) error
}

// Service rebuilds the knowledge index from the configured document directory
// and queues single-document updates for the embed worker.
type Service struct {
	dir       string
	indexer   Indexer
	settings  SettingsSource
	publisher Publisher
	window    int
	overlap   int
}

func NewService(dir string, indexer Indexer, src SettingsSource, pub Publisher, window, overlap int) *Service {
	return &Service{
		dir:       dir,
		indexer:   indexer,
		settings:  src,
		publisher: pub,
		window:    window,
		overlap:   overlap,
	}
}

func (s *Service) Rebuild(ctx context.Context) (*ingest.Summary, error) {
	docs, err := kbload.LoadDir(s.dir)
	if err != nil {
		return nil, err
	}
	window, overlap := s.chunkParams(ctx)
	return s.indexer.Build(ctx, docs, window, overlap)
}

// QueueDocument publishes a single updated document for asynchronous
// re-embedding, instead of the full synchronous rebuild.
func (s *Service) QueueDocument(ctx context.Context, source, text string) error {
	if s.publisher == nil {
		return errors.New("no task publisher configured")
	}
	window, overlap := s.chunkParams(ctx)
	payload := worker.KBEmbedPayload{
		Source:        source,
		Text:          text,
		Window:        window,
		Overlap:       overlap,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal embed payload: %w", err)
	}
	if err := s.publisher.Publish(config.TopicKBEmbed, body); err != nil {
		return fmt.Errorf("publish embed task: %w", err)
	}
	return nil
}

// chunkParams prefers the stored settings; a lookup failure or an invalid
// stored pair falls back to the boot-time configuration.
func (s *Service) chunkParams(ctx context.Context) (int, int) {
	if s.settings == nil {
		return s.window, s.overlap
	}
	set, err := s.settings.Get(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to load chunk settings, using defaults", "error", err)
		return s.window, s.overlap
	}
	if set.ChunkWindow <= 0 || set.ChunkOverlap < 0 || set.ChunkOverlap >= set.ChunkWindow {
		return s.window, s.overlap
	}
	return set.ChunkWindow, set.ChunkOverlap
}
