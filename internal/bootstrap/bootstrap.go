package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trustlayer/trustgraph/internal/config"
	"github.com/trustlayer/trustgraph/internal/core/ports"
	"github.com/trustlayer/trustgraph/internal/core/usecase"
	"github.com/trustlayer/trustgraph/internal/infrastructure/graph/neo4j"
	"github.com/trustlayer/trustgraph/internal/infrastructure/queue/nats"
	"github.com/trustlayer/trustgraph/internal/infrastructure/registry"
	"github.com/trustlayer/trustgraph/internal/infrastructure/repository/postgres"
	"github.com/trustlayer/trustgraph/internal/infrastructure/resilience"
	"github.com/trustlayer/trustgraph/internal/infrastructure/storage/jsonfs"
	"github.com/trustlayer/trustgraph/internal/infrastructure/summarizer/ollama"
	"github.com/trustlayer/trustgraph/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Pipeline *usecase.Pipeline
	Store    ports.AtomStore
	Metrics  *metrics.PipelineMetrics

	closeFn func(context.Context)
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	loader := registry.NewLoader(logger)
	productRegistry := loader.LoadRegistry(cfg.RegistryPath)
	requiredFields := loader.LoadSchema(cfg.SchemaPath)
	embeddings := loader.LoadEmbeddings(cfg.EmbeddingsPath)
	lexicon := loader.LoadLexicon(cfg.LexiconPath)

	fileStore, err := jsonfs.New(cfg.StorageBasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("init json storage: %w", err)
	}
	mentionLog, err := jsonfs.NewMentionLog(cfg.MentionLogPath)
	if err != nil {
		return nil, fmt.Errorf("init mention log: %w", err)
	}

	closers := make([]func(context.Context), 0, 3)

	var store ports.AtomStore = fileStore
	if cfg.StorageBackend == "postgres" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewAtomRepository(db, logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		store = repo
		closers = append(closers, func(context.Context) { _ = db.Close() })
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy())

	var summarizer ports.Summarizer
	var embed usecase.EmbedFunc
	if cfg.SummarizerEnabled {
		client := ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			RequestsPerMinute: cfg.SummarizerRPM,
			EmbedModel:        cfg.OllamaEmbedModel,
			Executor:          executor,
		})
		summarizer = client
		if len(embeddings) > 0 {
			embed = func(text string) ([]float64, bool) {
				vector, err := client.Embed(ctx, text)
				if err != nil {
					logger.Warn("embed mention text", "error", err)
					return nil, false
				}
				return vector, true
			}
		}
	}

	opts := usecase.PipelineOptions{Appender: fileStore}

	if cfg.NATSEnabled {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		opts.Publisher = queue
		closers = append(closers, func(context.Context) { queue.Close() })
	}

	if cfg.GraphEnabled {
		projection, err := neo4j.NewProjection(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			return nil, fmt.Errorf("init graph projection: %w", err)
		}
		opts.Graph = projection
		closers = append(closers, func(ctx context.Context) { _ = projection.Close(ctx) })
	}

	pipelineMetrics := metrics.NewPipelineMetrics("trustgraph-worker")
	opts.Observer = metrics.NewObserver("trustgraph-worker", pipelineMetrics)

	preprocessor := usecase.NewPreprocessor()
	matcher := usecase.NewMatcher(productRegistry, embeddings, embed, mentionLog, logger)
	analyzer := usecase.NewContentAnalyzer(lexicon, summarizer, cfg.MaxSummaryWords, logger)
	creator := usecase.NewTrustAtomCreator(requiredFields, logger)
	pipeline := usecase.NewPipeline(preprocessor, matcher, analyzer, creator, store, opts, logger)

	return &App{
		Config:   cfg,
		Pipeline: pipeline,
		Store:    store,
		Metrics:  pipelineMetrics,

		closeFn: func(ctx context.Context) {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i](ctx)
			}
		},
	}, nil
}

func (a *App) Close(ctx context.Context) {
	if a.closeFn != nil {
		a.closeFn(ctx)
	}
}
