package bootstrap

import (
	"context"
	"log"

	"ai-interview-be/internal/config"
	"ai-interview-be/internal/controller"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/repository/contract"
	"ai-interview-be/internal/repository/implementation"
	"ai-interview-be/internal/repository/memory"
	redisRepo "ai-interview-be/internal/repository/redis"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/internal/service"
	"ai-interview-be/pkg/followup"
	"ai-interview-be/pkg/followup/cache"
	"ai-interview-be/pkg/followup/confidence"
	"ai-interview-be/pkg/followup/fallback"
	"ai-interview-be/pkg/followup/strategy"
	"ai-interview-be/pkg/followup/synthesis"
	"ai-interview-be/pkg/interview/personalization"
	"ai-interview-be/pkg/interview/session"
	"ai-interview-be/pkg/llm/factory"
	"ai-interview-be/pkg/metrics"
	"ai-interview-be/pkg/retrieval"

	pktNats "ai-interview-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	InterviewController controller.IInterviewController
	QuestionController  controller.IQuestionController

	// Background Services (Exposed for main.go to run)
	ConsumerService   service.IConsumerService
	EventAuditService service.IEventAuditService // nil without NATS

	QuestionService service.IQuestionService

	// Retrieval is exposed for the health check's breaker state.
	Retrieval *retrieval.Index
	Metrics   *metrics.Collector
	Logger  logger.ILogger

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	ctx := context.Background()

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	engineLogger := logger.NewIsolatedLogger(cfg.App.EngineLogFilePath)
	collector := metrics.NewCollector()

	if err := cfg.Engine.Validate(); err != nil {
		log.Fatalf("[FATAL] Invalid engine configuration: %v", err)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Embedding
	embedder := NewEmbeddingClient(ctx, cfg, engineLogger)

	// 4. LLM
	llmProvider, err := factory.NewLLMProvider(
		ctx,
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Follow-up engine
	index := NewRetrievalIndex(db, cfg, engineLogger, collector)

	assessor, err := confidence.NewAssessor(confidence.DefaultWeights, cfg.Engine.MinQuestionWords, cfg.Engine.MaxQuestionWords)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize confidence assessor: %v", err)
	}
	selector, err := strategy.NewSelector(strategy.Thresholds{
		Refine:        cfg.Engine.RefineThreshold,
		Contextual:    cfg.Engine.ContextualThreshold,
		BestCandidate: cfg.Engine.BestCandidateThreshold,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize strategy selector: %v", err)
	}

	fallbackTable, err := fallback.Load(cfg.Engine.FallbackTablePath)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load fallback table: %v", err)
	}
	log.Printf("[INFO] Fallback table version %d loaded", fallbackTable.Version())

	synthesizer := synthesis.NewSynthesizer(llmProvider, synthesis.Config{
		Budget:   cfg.Engine.SynthesisBudget,
		MinWords: cfg.Engine.MinQuestionWords,
		MaxWords: cfg.Engine.MaxQuestionWords,
		Model:    cfg.Ai.SynthesisModel,
	}, engineLogger)

	engine := followup.NewEngine(followup.Dependencies{
		Embedder:  embedder,
		Retriever: index,
		Assessor:  assessor,
		Selector:  selector,
		Chain:     followup.NewDefaultChain(synthesizer, fallbackTable),
		Cache:     cache.NewResultCache(cfg.Engine.CacheCapacity, cfg.Engine.CacheTTL),
		Logger:    engineLogger,
		Metrics:   collector,
	}, followup.Config{
		TopK:        cfg.Engine.RetrievalTopK,
		SoftTarget:  cfg.Engine.SoftTarget,
		HardCeiling: cfg.Engine.HardCeiling,
		CacheTTL:    cfg.Engine.CacheTTL,
	})

	// 6. Infrastructure
	// Redis
	var closers []func()
	var sessionStore contract.SessionStore
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Sessions are kept in memory", err)
		_ = rdb.Close()
		sessionStore = memory.NewSessionRepository(cfg.Session.TTL)
	} else {
		sessionStore = redisRepo.NewSessionRepository(rdb, cfg.Session.TTL)
		closers = append(closers, func() { _ = rdb.Close() })
	}

	// NATS
	var eventPublisher service.EventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		closers = append(closers, natsPub.Close)
	}

	var auditService service.IEventAuditService
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		auditLogger := logger.NewIsolatedLogger("logs/interview_events.log")
		auditService = service.NewEventAuditService(natsSub, auditLogger)
		closers = append(closers, natsSub.Close)
	}

	sessions := session.NewManager(
		sessionStore,
		implementation.NewInterviewSessionRepository(db),
		sysLogger,
		collector,
	)
	personalizer := personalization.NewLLMProvider(llmProvider, cfg.Ai.PersonalizeTimeout, sysLogger)

	// 7. Services
	publisherService := service.NewPublisherService(cfg.App.QuestionSyncTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.QuestionSyncTopic,
		uowFactory,
		embedder,
		index,
		engineLogger,
		collector,
	)
	questionService := service.NewQuestionService(uowFactory, publisherService, sysLogger)
	interviewService := service.NewInterviewService(
		uowFactory,
		sessions,
		engine,
		personalizer,
		eventPublisher,
		sysLogger,
	)

	closers = append(closers, func() { _ = pubSub.Close() })

	// 8. Controllers
	return &Container{
		InterviewController: controller.NewInterviewController(interviewService),
		QuestionController:  controller.NewQuestionController(questionService),

		ConsumerService:   consumerService,
		EventAuditService: auditService,
		QuestionService:   questionService,

		Retrieval: index,
		Metrics:   collector,
		Logger:    sysLogger,

		closers: closers,
	}
}

// Close releases the broker, cache and bus connections.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
