package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/libbotai/libbot/internal/agent"
	"github.com/libbotai/libbot/internal/channel"
	metaadapter "github.com/libbotai/libbot/internal/channel/adapters/meta"
	twilioadapter "github.com/libbotai/libbot/internal/channel/adapters/twilio"
	"github.com/libbotai/libbot/internal/chat"
	"github.com/libbotai/libbot/internal/config"
	"github.com/libbotai/libbot/internal/db"
	"github.com/libbotai/libbot/internal/handlers"
	"github.com/libbotai/libbot/internal/history"
	"github.com/libbotai/libbot/internal/knowledge"
	"github.com/libbotai/libbot/internal/logger"
	"github.com/libbotai/libbot/internal/server"
	"github.com/libbotai/libbot/internal/version"
)

func runServe(cfgPath string) {
	fx.New(
		fx.Provide(
			provideConfig(cfgPath),
			provideLogger,
			provideDBPool,
			history.NewService,
			provideChatProvider,
			provideEmbedder,
			provideChunker,
			provideQdrantStore,
			provideKnowledgeService,
			provideAgent,
			providePipeline,
			provideServerHandler(provideStatusHandler),
			provideServerHandler(provideWebhookHandler),
			provideServer,
		),
		fx.Invoke(
			loadKnowledge,
			startKnowledgeRefresh,
			startServer,
		),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig(cfgPath string) func() (config.Config, error) {
	return func() (config.Config, error) {
		// Credentials commonly live in a .env next to the binary; its absence
		// is fine.
		_ = godotenv.Load()
		if cfgPath == "" {
			cfgPath = os.Getenv("CONFIG_PATH")
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return nil, fmt.Errorf("db migrate: %w", err)
	}
	pool, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideChatProvider(log *slog.Logger, cfg config.Config) chat.Provider {
	return chat.NewClient(log, cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model,
		time.Duration(cfg.LLM.TimeoutSeconds)*time.Second)
}

func provideEmbedder(log *slog.Logger, cfg config.Config) knowledge.Embedder {
	return knowledge.NewHTTPEmbedder(log, cfg.Embedding.BaseURL, cfg.Embedding.APIKey,
		cfg.Embedding.Model, cfg.Embedding.Dimensions,
		time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second)
}

func provideChunker(cfg config.Config) (*knowledge.Chunker, error) {
	return knowledge.NewChunker(cfg.Knowledge.ChunkTokens, cfg.Knowledge.ChunkOverlap)
}

func provideQdrantStore(log *slog.Logger, cfg config.Config) (*knowledge.QdrantStore, error) {
	return knowledge.NewQdrantStore(log, knowledge.StoreConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
		Collection: cfg.Qdrant.Collection,
	})
}

func provideKnowledgeService(log *slog.Logger, store *knowledge.QdrantStore, embedder knowledge.Embedder, chunker *knowledge.Chunker, cfg config.Config) (*knowledge.Service, error) {
	return knowledge.NewService(log, store, embedder, chunker, knowledge.Options{
		DocsPath:   cfg.Knowledge.DocsPath,
		SearchTopK: cfg.Knowledge.SearchTopK,
	})
}

func provideAgent(log *slog.Logger, provider chat.Provider, knowledgeService *knowledge.Service, historyService *history.Service, cfg config.Config) *agent.Agent {
	return agent.New(log, provider, knowledgeService,
		&historyStoreAdapter{service: historyService},
		agent.DefaultPersona(cfg.Bot.Name), cfg.Bot.HistoryWindow)
}

func providePipeline(log *slog.Logger, botAgent *agent.Agent, cfg config.Config) *channel.Pipeline {
	return channel.NewPipeline(log, botAgent, channel.ReplyTexts{
		Fallback: cfg.Bot.FallbackReply,
		Empty:    cfg.Bot.EmptyReply,
		TextOnly: cfg.Bot.TextOnlyReply,
	})
}

func provideStatusHandler(log *slog.Logger, cfg config.Config) *handlers.StatusHandler {
	return handlers.NewStatusHandler(log, cfg.Bot.Name, cfg.Bot.RunningMessage)
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, pipeline *channel.Pipeline) (server.Handler, error) {
	switch cfg.Channel.Active {
	case twilioadapter.Type.String():
		adapter := twilioadapter.NewTwilioAdapter(log, twilioadapter.Config{
			AccountSID:     cfg.Twilio.AccountSID,
			AuthToken:      cfg.Twilio.AuthToken,
			WhatsAppNumber: cfg.Twilio.WhatsAppNumber,
		})
		return twilioadapter.NewWebhookHandler(log, adapter, pipeline), nil
	case metaadapter.Type.String():
		adapter := metaadapter.NewMetaAdapter(log, metaadapter.Config{
			AccessToken:   cfg.Meta.AccessToken,
			PhoneNumberID: cfg.Meta.PhoneNumberID,
			VerifyToken:   cfg.Meta.VerifyToken,
			GraphBaseURL:  cfg.Meta.GraphBaseURL,
		})
		return metaadapter.NewWebhookHandler(log, adapter, pipeline), nil
	default:
		return nil, fmt.Errorf("unknown channel %q", cfg.Channel.Active)
	}
}

type serverParams struct {
	fx.In
	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.Handlers)
}

func loadKnowledge(lc fx.Lifecycle, log *slog.Logger, knowledgeService *knowledge.Service, cfg config.Config) {
	lc.Append(fx.Hook{OnStart: func(ctx context.Context) error {
		// Ingestion failures leave the service running with a stale or empty
		// index; only the missing-folder check aborts startup.
		if err := knowledgeService.Load(ctx, cfg.Knowledge.Recreate); err != nil {
			log.Warn("knowledge base load failed", slog.Any("error", err))
		} else {
			log.Info("knowledge base loaded")
		}
		return nil
	}})
}

func startKnowledgeRefresh(lc fx.Lifecycle, log *slog.Logger, knowledgeService *knowledge.Service, cfg config.Config) error {
	spec := cfg.Knowledge.RefreshCron
	if spec == "" {
		return nil
	}
	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		if err := knowledgeService.Load(context.Background(), false); err != nil {
			log.Warn("knowledge refresh failed", slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh cron %q: %w", spec, err)
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { scheduler.Start(); return nil },
		OnStop:  func(ctx context.Context) error { scheduler.Stop(); return nil },
	})
	return nil
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting LibBot %s\n", version.GetInfo())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

type historyStoreAdapter struct {
	service *history.Service
}

func (a *historyStoreAdapter) Append(ctx context.Context, sessionID, role, content string) error {
	return a.service.Append(ctx, sessionID, role, content)
}

func (a *historyStoreAdapter) Recent(ctx context.Context, sessionID string, n int) ([]agent.HistoryEntry, error) {
	entries, err := a.service.Recent(ctx, sessionID, n)
	if err != nil {
		return nil, err
	}
	out := make([]agent.HistoryEntry, len(entries))
	for i, entry := range entries {
		out[i] = agent.HistoryEntry{Role: entry.Role, Content: entry.Content}
	}
	return out, nil
}
