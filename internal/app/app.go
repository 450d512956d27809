package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	kbfeature "tsguard/features/kb"
	"tsguard/features/report"
	riskfeature "tsguard/features/risk"
	triagefeature "tsguard/features/triage"
	"tsguard/internal/config"
	"tsguard/internal/ingest"
	"tsguard/internal/middleware"
	"tsguard/internal/retrieval"
	"tsguard/internal/risk"
	"tsguard/internal/settings"
	"tsguard/internal/triage"
	"tsguard/internal/worker"
)

// Embedder is the shared batch-embedding boundary. The same provider must
// serve both indexing and query embedding so vectors share one space.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is everything the application needs from the chunk store.
type VectorStore interface {
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error
	StoreChunk(ctx context.Context, chunk worker.Chunk) error
	DeleteBySource(ctx context.Context, source string) error
	Query(ctx context.Context, vector []float32, k int) ([]retrieval.Snippet, error)
}

// TaskPublisher enqueues background tasks. Satisfied by *nsq.Producer; nil
// disables the async embed path.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler       http.Handler
	EmbedConsumer *worker.EmbedderConsumer
	Indexer       *ingest.Indexer
	port          int
}

func New(
	cfg *config.Config,
	db *sql.DB,
	vecStore VectorStore,
	embedder Embedder,
	chat triage.ChatFunc,
	taskPub TaskPublisher,
) (*App, error) {

	// Feature: Settings
	settingsRepo := settings.NewPostgresRepo(db)
	settingsService := settings.NewService(settingsRepo)
	seedSettings(cfg, settingsService)
	settingsHandler := settings.NewHandler(settingsService)

	// Retrieval
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(embedder, vecStore, cfg.SearchTopK, settingsService, queryLogger)

	// Ingestion
	indexer := ingest.NewIndexer(embedder, vecStore)
	kbService := kbfeature.NewService(cfg.KBDir, indexer, settingsService, taskPub, cfg.ChunkWindow, cfg.ChunkOverlap)
	kbHandler := kbfeature.NewHandler(retrievalService, kbService)

	// Feature: Triage
	reportRepo := report.NewPostgresRepo(db)
	reportHandler := report.NewHandler(reportRepo)
	triageService := triage.NewService(retrievalService, chat)
	triageHandler := triagefeature.NewHandler(triageService, reportRepo)

	// Feature: Risk
	scorer := risk.NewScorer(cfg.ScorerURL, time.Duration(cfg.ChatTimeoutS)*time.Second)
	riskHandler := riskfeature.NewHandler(scorer)

	// Middleware: CORS
	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	// Routes
	mux := http.NewServeMux()

	mux.Handle("POST /triage", middleware.CorrelationID(enableCORS(triageHandler.Triage)))
	mux.Handle("POST /predict_call_risk", middleware.CorrelationID(enableCORS(riskHandler.PredictCallRisk)))

	mux.Handle("GET /kb/search", middleware.CorrelationID(enableCORS(kbHandler.Search)))
	mux.Handle("POST /kb/rebuild", middleware.CorrelationID(enableCORS(kbHandler.Rebuild)))
	mux.Handle("POST /kb/documents", middleware.CorrelationID(enableCORS(kbHandler.UpsertDocument)))

	mux.Handle("GET /reports", middleware.CorrelationID(enableCORS(reportHandler.List)))

	mux.Handle("GET /settings", middleware.CorrelationID(enableCORS(settingsHandler.GetSettings)))
	mux.Handle("PUT /settings", middleware.CorrelationID(enableCORS(settingsHandler.UpdateSettings)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	embedConsumer := worker.NewEmbedderConsumer(embedder, vecStore, cfg.ChunkWindow, cfg.ChunkOverlap)

	return &App{
		Handler:       mux,
		EmbedConsumer: embedConsumer,
		Indexer:       indexer,
		port:          cfg.ServerPort,
	}, nil
}

// seedSettings copies the environment Gemini key into the settings row when
// the row is still empty, so a fresh deployment works without a manual PUT.
func seedSettings(cfg *config.Config, svc *settings.Service) {
	if cfg.GeminiAPIKey == "" {
		return
	}
	ctx := context.Background()
	set, err := svc.Get(ctx)
	if err != nil {
		slog.Warn("failed to fetch settings for seeding", "error", err)
		return
	}
	if set.GeminiAPIKey != "" {
		return
	}
	set.GeminiAPIKey = cfg.GeminiAPIKey
	if err := svc.Update(ctx, set); err != nil {
		slog.Warn("failed to seed gemini api key", "error", err)
		return
	}
	slog.Info("seeded gemini api key from environment")
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
