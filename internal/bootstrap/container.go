package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"research-agent-be/internal/config"
	"research-agent-be/internal/controller"
	"research-agent-be/internal/pkg/logger"
	"research-agent-be/internal/repository/cache"
	"research-agent-be/internal/repository/implementation"
	"research-agent-be/internal/repository/memory"
	"research-agent-be/internal/service"
	"research-agent-be/pkg/agent"
	"research-agent-be/pkg/database"
	"research-agent-be/pkg/embedding"
	"research-agent-be/pkg/llm/factory"
	"research-agent-be/pkg/mcp"
	agentmemory "research-agent-be/pkg/memory"
	"research-agent-be/pkg/metrics"
	pktNats "research-agent-be/pkg/nats"
	"research-agent-be/pkg/rag"
	"research-agent-be/pkg/search"
	"research-agent-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config  *config.Config
	Logger  logger.ILogger
	Metrics *metrics.Collector

	// Domain components, also used by agentctl.
	Store    vectorstore.Store
	Memory   *agentmemory.Manager
	Registry *mcp.Registry
	Indexer  *rag.Indexer
	Graph    *agent.Graph
	Events   *pktNats.Publisher

	// Controllers
	HealthController controller.IHealthController
	ChatController   controller.IChatController
	EvalController   controller.IEvalController
	MemoryController controller.IMemoryController
	ToolController   controller.IToolController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func() error
}

func NewContainer(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{
		Config:  cfg,
		Logger:  sysLogger,
		Metrics: metrics.NewCollector(),
	}

	// 1. AI collaborators
	policy, err := factory.NewLLMProvider(factory.Params{
		Provider:      cfg.AI.LLMProvider,
		Model:         policyModel(cfg),
		Temperature:   cfg.AI.Temperature,
		OpenAIKey:     cfg.AI.OpenAIKey,
		OpenAIBaseURL: cfg.AI.OpenAIBaseURL,
		OllamaBaseURL: cfg.AI.OllamaBaseURL,
		Timeout:       cfg.AI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("Container", "AI providers ready", map[string]interface{}{
		"llm":       cfg.AI.LLMProvider,
		"embedding": cfg.AI.EmbeddingProvider,
	})

	// 2. Vector store
	store, err := c.newStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = store

	// 3. Memory
	window, err := c.newWindowStore(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Memory = agentmemory.NewManager(
		window,
		agentmemory.NewLongTerm(store, embedder, agentmemory.WithEmbedTimeout(cfg.AI.Timeout)),
		sysLogger,
		agentmemory.WithCapacity(cfg.Memory.WindowSize),
		agentmemory.WithRecallK(cfg.Memory.RecallK),
		agentmemory.WithArchiver(c.Metrics),
	)

	// 4. Tools, search and the corpus
	c.Registry = mcp.NewRegistry(toolProviders(cfg.Tools.Providers), sysLogger,
		mcp.WithCallTimeout(cfg.Tools.Timeout),
		mcp.WithCatalogTTL(cfg.Tools.CatalogTTL),
		mcp.WithCallObserver(c.Metrics),
	)
	searcher := search.NewDuckDuckGo(cfg.Search.Timeout,
		search.WithEndpoint(cfg.Search.Endpoint),
		search.WithRateLimit(cfg.Search.RatePerSecond),
	)
	c.Indexer = rag.NewIndexer(store, embedder, sysLogger,
		rag.WithChunkSize(cfg.RAG.ChunkSize),
		rag.WithStrategy(cfg.RAG.ChunkStrategy),
	)

	// 5. Research graph
	c.Graph, err = agent.NewResearchGraph(agent.Deps{
		Policy:           policy,
		Embedder:         embedder,
		Searcher:         searcher,
		Retriever:        rag.NewRetriever(store),
		Tools:            c.Registry,
		Logger:           sysLogger,
		SearchMaxResults: cfg.Search.MaxResults,
		TopK:             cfg.RAG.TopK,
		CallTimeout:      cfg.AI.Timeout,
	}, cfg.Agent.MaxHops, c.Metrics)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("research graph: %w", err)
	}

	// 6. Event bus
	var eventPublisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Container", "Failed to connect to NATS, run events disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			c.Events = natsPub
			eventPublisher = natsPub
			c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
		}
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, pubSub.Close)

	publisherService := service.NewPublisherService(cfg.Memory.ArchiveTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Memory.ArchiveTopic, c.Memory, eventPublisher, sysLogger)

	// 7. Services
	evals := metrics.NewEvalBuffer(cfg.Metrics.EvalBufferSize)
	chatService := service.NewChatService(service.ChatServiceDeps{
		Graph:      c.Graph,
		Memory:     c.Memory,
		Evals:      evals,
		Observer:   c.Metrics,
		Events:     eventPublisher,
		Archive:    publisherService,
		RunTimeout: cfg.Agent.RunTimeout,
		Logger:     sysLogger,
	})

	// 8. Controllers
	c.HealthController = controller.NewHealthController()
	c.ChatController = controller.NewChatController(chatService)
	c.EvalController = controller.NewEvalController(service.NewEvalService(evals))
	c.MemoryController = controller.NewMemoryController(service.NewMemoryService(c.Memory, sysLogger))
	c.ToolController = controller.NewToolController(service.NewToolService(c.Registry))

	return c, nil
}

// Close releases every handle in reverse creation order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func policyModel(cfg *config.Config) string {
	if cfg.AI.LLMProvider == "ollama" {
		return cfg.AI.OllamaChatModel
	}
	return cfg.AI.ChatModel
}

func newEmbedder(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	model := cfg.AI.EmbedModel
	if cfg.AI.EmbeddingProvider == "ollama" {
		model = cfg.AI.OllamaEmbedModel
	}
	p, err := embedding.NewEmbeddingProvider(embedding.Params{
		Provider:      cfg.AI.EmbeddingProvider,
		Model:         model,
		OpenAIKey:     cfg.AI.OpenAIKey,
		OpenAIBaseURL: cfg.AI.OpenAIBaseURL,
		OllamaBaseURL: cfg.AI.OllamaBaseURL,
		Timeout:       cfg.AI.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	return p, nil
}

func (c *Container) newStore(ctx context.Context, cfg *config.Config) (vectorstore.Store, error) {
	switch cfg.Vector.Backend {
	case "memory", "":
		return vectorstore.NewMemoryStore(), nil

	case "sqlite":
		s, err := vectorstore.NewSQLiteStore(cfg.Vector.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		c.closers = append(c.closers, s.Close)
		return s, nil

	case "weaviate":
		s, err := vectorstore.NewWeaviateStore(cfg.Vector.WeaviateURL, cfg.Vector.WeaviateClass)
		if err != nil {
			return nil, fmt.Errorf("weaviate store: %w", err)
		}
		return s, nil

	case "pgvector":
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.closers = append(c.closers, func() error { return database.Close(db) })

		repo := implementation.NewVectorRecordRepository(db)
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := repo.Migrate(migrateCtx); err != nil {
			return nil, fmt.Errorf("migrate vector records: %w", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.Vector.Backend)
	}
}

func (c *Container) newWindowStore(ctx context.Context, cfg *config.Config) (agentmemory.WindowStore, error) {
	switch cfg.Memory.WindowBackend {
	case "memory", "":
		return memory.NewWindowRepository(cfg.Memory.WindowTTL), nil

	case "redis":
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			c.Logger.Warn("Container", "Failed to parse Redis URL, using it as an address", map[string]interface{}{
				"error": err.Error(),
			})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		c.closers = append(c.closers, rdb.Close)

		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return cache.NewRedisWindowRepository(rdb, cfg.Memory.WindowTTL), nil

	default:
		return nil, fmt.Errorf("unsupported window backend: %s", cfg.Memory.WindowBackend)
	}
}

func toolProviders(in []config.ToolProviderConfig) []mcp.Provider {
	out := make([]mcp.Provider, 0, len(in))
	for _, p := range in {
		out = append(out, mcp.Provider{
			Name:       p.Name,
			URL:        p.URL,
			Transport:  p.Transport,
			AuthHeader: p.AuthHeader,
			Enabled:    p.Enabled,
		})
	}
	return out
}
