package bootstrap

import (
	"context"
	"log"
	"time"

	"code-research-be/internal/config"
	"code-research-be/internal/controller"
	"code-research-be/internal/handler"
	"code-research-be/internal/pkg/logger"
	"code-research-be/internal/repository/memory"
	"code-research-be/internal/repository/unitofwork"
	"code-research-be/internal/service"
	"code-research-be/internal/websocket"
	"code-research-be/pkg/cache"
	"code-research-be/pkg/llm/factory"
	"code-research-be/pkg/research"
	pkgSearch "code-research-be/pkg/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pktNats "code-research-be/pkg/nats"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	SearchController controller.ISearchController
	NoteController   controller.INoteController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Monitor
	MonitorHandler *handler.MonitorHandler
	WebSocketHub   *websocket.Hub
}

// NewContainer wires the application. db may be nil, in which case
// notes live in memory.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[INFO] No database configured, notes are stored in memory")
		uowFactory = memory.NewNoteRepositoryFactory()
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	providerCfg := factory.ProviderConfig{
		Type:    cfg.Ai.LLMProvider,
		Model:   cfg.Ai.LLMModel,
		BaseURL: cfg.Ai.OllamaBaseURL,
	}
	switch cfg.Ai.LLMProvider {
	case "azure":
		providerCfg.BaseURL = cfg.Ai.AzureEndpoint
		providerCfg.APIKey = cfg.Ai.AzureAPIKey
		providerCfg.AzureDeployment = cfg.Ai.AzureDeployment
		providerCfg.AzureAPIVersion = cfg.Ai.AzureAPIVersion
	case "huggingface":
		providerCfg.APIKey = cfg.Ai.HuggingFaceKey
	}
	llmProvider, err := factory.NewLLMProvider(providerCfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Initialize In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository()

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	var rdb *redis.Client
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb = redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// Code Search Client (cached)
	registry := pkgSearch.DefaultRegistry()
	azClient := pkgSearch.NewAzureDevOpsClient(registry, cfg.Search.PersonalAccessToken)

	var store cache.Cache
	if cfg.Search.CacheBackend == "redis" {
		store = cache.NewRedisCache(rdb)
		log.Printf("[INFO] Using Search Cache: REDIS")
	} else {
		store = cache.NewMemoryCache(time.Hour)
		log.Printf("[INFO] Using Search Cache: MEMORY")
	}
	searchClient := pkgSearch.NewCachedClient(azClient, store)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/monitor.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	researchCfg := research.Config{
		MaxRounds:      cfg.Research.MaxRounds,
		MaxKeywords:    cfg.Research.MaxKeywords,
		SessionTimeout: time.Duration(cfg.Research.SessionTimeoutSec) * time.Second,
	}

	publisherService := service.NewPublisherService(cfg.Research.NoteTitleTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Research.NoteTitleTopic,
		uowFactory,
		llmProvider,
	)

	chatService := service.NewChatService(
		searchClient,
		registry,
		llmProvider,
		sessionRepo,
		natsPub,
		researchCfg,
	)
	searchService := service.NewSearchService(searchClient, registry, llmProvider)
	// The interface value must stay nil when NATS is down, so the typed
	// nil pointer is not assigned directly.
	var noteEvents service.IEventPublisher
	if natsPub != nil {
		noteEvents = natsPub
	}
	noteService := service.NewNoteService(uowFactory, publisherService, noteEvents, nil)

	// 3.5 Monitor System
	monitorService := service.NewMonitorService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go monitorService.Start()
	}

	monitorHandler := handler.NewMonitorHandler(wsHub, sessionRepo, wsLogger)

	sysLogger.Info("Bootstrap", "Container initialized", map[string]interface{}{
		"llm_provider":  cfg.Ai.LLMProvider,
		"cache_backend": cfg.Search.CacheBackend,
		"max_rounds":    cfg.Research.MaxRounds,
	})

	// 4. Controllers
	return &Container{
		MonitorHandler:   monitorHandler,
		WebSocketHub:     wsHub,
		ChatController:   controller.NewChatController(chatService),
		SearchController: controller.NewSearchController(searchService),
		NoteController:   controller.NewNoteController(noteService, cfg.Auth),
		HealthController: controller.NewHealthController(),

		ConsumerService: consumerService,
	}
}
