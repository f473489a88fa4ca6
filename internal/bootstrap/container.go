package bootstrap

import (
	"context"
	"log"

	"ikms-rag-be/internal/config"
	"ikms-rag-be/internal/constant"
	"ikms-rag-be/internal/controller"
	"ikms-rag-be/internal/pkg/logger"
	"ikms-rag-be/internal/repository/implementation"
	"ikms-rag-be/internal/repository/memory"
	"ikms-rag-be/internal/repository/unitofwork"
	"ikms-rag-be/internal/service"
	"ikms-rag-be/pkg/agent"
	embeddingFactory "ikms-rag-be/pkg/embedding/factory"
	"ikms-rag-be/pkg/llm"
	llmFactory "ikms-rag-be/pkg/llm/factory"
	"ikms-rag-be/pkg/rag/agents"
	"ikms-rag-be/pkg/rag/graph"
	"ikms-rag-be/pkg/rag/retrieval"

	pktNats "ikms-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QAController       controller.IQAController
	DocumentController controller.IDocumentController

	// Services, exposed for the command line tools
	QAService       service.IQAService
	DocumentService service.IDocumentService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ActivityService service.IActivityService

	Logger logger.ILogger

	closers []func()
}

// Close releases the broker and cache connections
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	agentLogger := logger.NewIsolatedLogger(cfg.App.AgentLogFilePath)
	activityLogger := logger.NewIsolatedLogger("logs/activity.log")
	c.Logger = sysLogger

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS is optional, events are dropped without it
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	rdb := newRedisClient(cfg)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	checkpointer := newCheckpointer(cfg, db, rdb)

	// 4. Providers
	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaModel,
		cfg.APIKeyFor(cfg.Ai.EmbeddingProvider),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s", cfg.Ai.EmbeddingProvider)

	llmBaseURL := cfg.Ai.LLMBaseURL
	if llmBaseURL == "" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := llmFactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.APIKeyFor(cfg.Ai.LLMProvider),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Pipeline
	searchTool := retrieval.NewSearchTool(
		embeddingProvider,
		implementation.NewDocumentChunkRepository(db),
		cfg.Pipeline.RetrievalTopK,
		cfg.Pipeline.SimilarityThreshold,
		sysLogger,
	)
	provider := graph.NewProvider(func() (*graph.CompiledGraph, error) {
		stages, err := NewStages(cfg, llmProvider, searchTool, agentLogger)
		if err != nil {
			return nil, err
		}
		return agents.NewQAGraph(stages,
			graph.WithCheckpointer(checkpointer),
			graph.WithStageTimeout(cfg.Pipeline.StageTimeout),
			graph.WithLogger(sysLogger),
		)
	})
	runner := graph.NewRunner(provider)

	// 6. Services
	eventPublisher := service.NewEventPublisher(natsPub, sysLogger)
	publisherService := service.NewPublisherService(cfg.App.IndexTopic, pubSub)

	c.QAService = service.NewQAService(runner, eventPublisher, sysLogger)
	c.DocumentService = service.NewDocumentService(
		uowFactory,
		embeddingProvider,
		publisherService,
		eventPublisher,
		sysLogger,
		cfg.Pipeline.ChunkSize,
		cfg.Pipeline.ChunkOverlap,
	)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.App.IndexTopic, c.DocumentService, sysLogger)
	c.ActivityService = service.NewActivityService(natsSub, activityLogger)

	// 7. Controllers
	c.QAController = controller.NewQAController(c.QAService)
	c.DocumentController = controller.NewDocumentController(c.DocumentService)

	return c
}

// NewStages builds the four chat agents. Only the retrieval agent gets the search tool.
func NewStages(cfg *config.Config, provider llm.LLMProvider, searchTool agent.Tool, transcripts logger.ILogger) (*agents.Stages, error) {
	llmOpts := agent.WithLLMOptions(llm.WithTemperature(cfg.Ai.LLMTemperature))

	planner, err := agent.NewChatAgent(agents.NodePlanner, constant.PlannerSystemPrompt, provider, llmOpts)
	if err != nil {
		return nil, err
	}
	retriever, err := agent.NewChatAgent(agents.NodeRetrieval, constant.RetrievalSystemPrompt, provider,
		llmOpts,
		agent.WithTools(searchTool),
		agent.WithMaxIterations(cfg.Pipeline.MaxToolIterations),
	)
	if err != nil {
		return nil, err
	}
	summarizer, err := agent.NewChatAgent(agents.NodeSummarization, constant.SummarizationSystemPrompt, provider, llmOpts)
	if err != nil {
		return nil, err
	}
	verifier, err := agent.NewChatAgent(agents.NodeVerification, constant.VerificationSystemPrompt, provider, llmOpts)
	if err != nil {
		return nil, err
	}

	return agents.NewStages(planner, retriever, summarizer, verifier,
		agents.Config{
			HistoryWindow: cfg.Pipeline.HistoryWindow,
			ExcerptLength: cfg.Pipeline.ExcerptLength,
		},
		agents.WithTranscriptLogger(transcripts),
	), nil
}

func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.App.RedisURL == "" {
		return nil
	}
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}

func newCheckpointer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) graph.Checkpointer {
	switch cfg.Checkpoint.Backend {
	case "redis":
		if rdb == nil {
			log.Fatalf("[FATAL] CHECKPOINT_BACKEND=redis requires REDIS_URL")
		}
		log.Printf("[INFO] Using Checkpoint Store: REDIS")
		return implementation.NewRedisCheckpointRepository(rdb, cfg.Checkpoint.TTL)
	case "postgres":
		log.Printf("[INFO] Using Checkpoint Store: POSTGRES")
		return implementation.NewPostgresCheckpointRepository(db)
	default:
		log.Printf("[INFO] Using Checkpoint Store: MEMORY")
		return memory.NewCheckpointRepository(cfg.Checkpoint.TTL)
	}
}
