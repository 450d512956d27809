package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	"tsguard/internal/adapter/gemini"
	"tsguard/internal/adapter/ollama"
	wstore "tsguard/internal/adapter/weaviate"
	"tsguard/internal/app"
	"tsguard/internal/config"
	"tsguard/internal/ingest"
	"tsguard/internal/kb"
	"tsguard/internal/logger"
	"tsguard/internal/triage"
)

func main() {
	slog.SetDefault(slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil))))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "ingest" {
		runIngest(cfg)
		return
	}

	runServer(cfg)
}

// runIngest rebuilds the knowledge index from the configured directory and
// prints the summary. It only needs Weaviate and the embedding provider, so
// it skips the full bootstrap.
func runIngest(cfg *config.Config) {
	ctx := context.Background()

	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required for ingestion")
		os.Exit(1)
	}

	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
	if err != nil {
		slog.Error("failed to create embedder", "error", err)
		os.Exit(1)
	}
	defer embedder.Close()

	wClient, err := weaviate.NewClient(weaviate.Config{Host: cfg.WeaviateHost, Scheme: cfg.WeaviateScheme})
	if err != nil {
		slog.Error("failed to create weaviate client", "error", err)
		os.Exit(1)
	}
	vecStore := wstore.NewStore(wClient)

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	if err := app.EnsureSchemaWithRetry(ctx, vecStore, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		slog.Error("failed to ensure weaviate schema", "error", err)
		os.Exit(1)
	}

	docs, err := kb.LoadDir(cfg.KBDir)
	if err != nil {
		slog.Error("failed to load kb documents", "error", err)
		os.Exit(1)
	}

	indexer := ingest.NewIndexer(embedder, vecStore)
	summary, err := indexer.Build(ctx, docs, cfg.ChunkWindow, cfg.ChunkOverlap)
	if err != nil {
		slog.Error("index rebuild failed", "error", err)
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(summary); err != nil {
		slog.Error("failed to encode summary", "error", err)
		os.Exit(1)
	}
}

func runServer(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	// Chat provider chain: hosted Gemini when a key is configured, local
	// Ollama otherwise.
	var chat triage.ChatFunc
	var embedder app.Embedder
	if cfg.GeminiAPIKey != "" {
		geminiChat, err := gemini.NewChat(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("failed to create gemini chat client", "error", err)
			os.Exit(1)
		}
		defer geminiChat.Close()
		chat = geminiChat.ChatFunc()

		geminiEmbedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey)
		if err != nil {
			slog.Error("failed to create embedder", "error", err)
			os.Exit(1)
		}
		defer geminiEmbedder.Close()
		embedder = geminiEmbedder

		slog.Info("using gemini chat and embedding provider", "model", cfg.GeminiModel)
	} else {
		chatTimeout := time.Duration(cfg.ChatTimeoutS) * time.Second
		chat = ollama.NewClient(cfg.OllamaBaseURL, cfg.OllamaModel, chatTimeout).ChatFunc()
		embedder = unavailableEmbedder{}
		slog.Warn("no gemini api key set, using ollama chat without retrieval")
	}

	a, err := app.New(cfg, deps.DB, deps.VectorStore, embedder, chat, deps.NSQProducer)
	if err != nil {
		slog.Error("failed to build app", "error", err)
		os.Exit(1)
	}

	if cfg.EnableEmbedWorker {
		consumer, err := nsq.NewConsumer(config.TopicKBEmbed, config.ChannelEmbedWorker, nsq.NewConfig())
		if err != nil {
			slog.Error("failed to create NSQ consumer", "error", err)
			os.Exit(1)
		}
		consumer.AddHandler(nsq.HandlerFunc(a.EmbedConsumer.HandleMessage))
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			slog.Error("failed to connect to nsqlookupd", "error", err)
		} else {
			slog.Info("embed worker connected", "topic", config.TopicKBEmbed)
		}
		defer consumer.Stop()
	}

	if err := a.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// unavailableEmbedder stands in when no embedding provider is configured.
// Retrieval reports the backend unavailable and triage degrades to answering
// without knowledge context.
type unavailableEmbedder struct{}

func (unavailableEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("no embedding provider configured")
}
