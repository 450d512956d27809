package kb_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	feature "tsguard/features/kb"
	"tsguard/internal/config"
	"tsguard/internal/ingest"
	"tsguard/internal/middleware"
	"tsguard/internal/settings"
	"tsguard/internal/worker"
)

type MockSettingsSource struct {
	mock.Mock
}

func (m *MockSettingsSource) Get(ctx context.Context) (*settings.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func TestService_Rebuild_UsesStoredChunkSettings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scams.md"), []byte("content"), 0o600))

	src := new(MockSettingsSource)
	src.On("Get", mock.Anything).Return(&settings.Settings{SearchTopK: 4, ChunkWindow: 800, ChunkOverlap: 100}, nil)

	indexer := new(MockIndexer)
	indexer.On("Build", mock.Anything, mock.Anything, 800, 100).
		Return(&ingest.Summary{ChunksIndexed: 1, DocumentsProcessed: 1}, nil)

	svc := feature.NewService(dir, indexer, src, nil, 1500, 250)
	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	indexer.AssertExpectations(t)
}

func TestService_Rebuild_FallsBackToDefaultsWhenSettingsFail(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scams.md"), []byte("content"), 0o600))

	src := new(MockSettingsSource)
	src.On("Get", mock.Anything).Return(nil, errors.New("db down"))

	indexer := new(MockIndexer)
	indexer.On("Build", mock.Anything, mock.Anything, 1500, 250).
		Return(&ingest.Summary{ChunksIndexed: 1, DocumentsProcessed: 1}, nil)

	svc := feature.NewService(dir, indexer, src, nil, 1500, 250)
	_, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	indexer.AssertExpectations(t)
}

func TestService_QueueDocument(t *testing.T) {
	t.Run("PublishesEmbedPayload", func(t *testing.T) {
		pub := new(MockPublisher)
		var captured []byte
		pub.On("Publish", config.TopicKBEmbed, mock.Anything).
			Run(func(args mock.Arguments) { captured = args.Get(1).([]byte) }).
			Return(nil)

		svc := feature.NewService(t.TempDir(), new(MockIndexer), nil, pub, 1500, 250)

		ctx := middleware.WithCorrelationID(context.Background(), "corr-7")
		require.NoError(t, svc.QueueDocument(ctx, "scams.md", "new scam pattern"))

		var payload worker.KBEmbedPayload
		require.NoError(t, json.Unmarshal(captured, &payload))
		assert.Equal(t, "scams.md", payload.Source)
		assert.Equal(t, "new scam pattern", payload.Text)
		assert.Equal(t, 1500, payload.Window)
		assert.Equal(t, 250, payload.Overlap)
		assert.Equal(t, "corr-7", payload.CorrelationID)
	})

	t.Run("StoredSettingsDriveChunkParameters", func(t *testing.T) {
		src := new(MockSettingsSource)
		src.On("Get", mock.Anything).Return(&settings.Settings{SearchTopK: 4, ChunkWindow: 600, ChunkOverlap: 50}, nil)

		pub := new(MockPublisher)
		var captured []byte
		pub.On("Publish", config.TopicKBEmbed, mock.Anything).
			Run(func(args mock.Arguments) { captured = args.Get(1).([]byte) }).
			Return(nil)

		svc := feature.NewService(t.TempDir(), new(MockIndexer), src, pub, 1500, 250)
		require.NoError(t, svc.QueueDocument(context.Background(), "a.md", "text"))

		var payload worker.KBEmbedPayload
		require.NoError(t, json.Unmarshal(captured, &payload))
		assert.Equal(t, 600, payload.Window)
		assert.Equal(t, 50, payload.Overlap)
	})

	t.Run("PublishFailurePropagates", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nsqd down"))

		svc := feature.NewService(t.TempDir(), new(MockIndexer), nil, pub, 1500, 250)
		assert.Error(t, svc.QueueDocument(context.Background(), "a.md", "text"))
	})

	t.Run("NoPublisherConfigured", func(t *testing.T) {
		svc := feature.NewService(t.TempDir(), new(MockIndexer), nil, nil, 1500, 250)
		assert.Error(t, svc.QueueDocument(context.Background(), "a.md", "text"))
	})
}
