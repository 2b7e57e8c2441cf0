package bootstrap

import (
	"log"

	"compliance-audit-be/internal/config"
	"compliance-audit-be/internal/pkg/logger"
	"compliance-audit-be/internal/repository/implementation"
	"compliance-audit-be/internal/service"
	"compliance-audit-be/pkg/analysis"
	"compliance-audit-be/pkg/assembler"
	"compliance-audit-be/pkg/embedding"
	"compliance-audit-be/pkg/expansion"
	"compliance-audit-be/pkg/flagging"
	"compliance-audit-be/pkg/retrieval"
	"compliance-audit-be/pkg/runner"

	pktNats "compliance-audit-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// AuditService is the operations surface consumed by the external
	// reporting/API layer.
	AuditService service.IAuditService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	auditRepo := implementation.NewAuditRepository(db)
	chunkRepo := implementation.NewChunkRepository(db)
	embeddingRepo := implementation.NewChunkEmbeddingRepository(db)
	flagRepo := implementation.NewFlagRepository(db)
	resultRepo := implementation.NewAuditChunkResultRepository(db)
	scoreRepo := implementation.NewComplianceScoreRepository(db)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. Retrieval and context pipeline
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.EmbeddingBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	retriever := retrieval.NewVectorRetriever(
		embeddingRepo,
		embeddingProvider,
		cfg.Context.SimilarityFloor,
		sysLogger,
	)

	baseAssembler := assembler.NewAssembler(chunkRepo, retriever, cfg.Context, sysLogger)

	var builder runner.ContextBuilder = baseAssembler
	if cfg.Recursion.Enabled {
		builder = expansion.NewEngine(baseAssembler, chunkRepo, retriever, cfg.Recursion, sysLogger)
		log.Printf("[INFO] Recursive context expansion enabled (max depth %d)", cfg.Recursion.MaxDepth)
	}

	// 4. Analysis client
	var client analysis.Client
	if cfg.Ai.LLMAPIKey != "" {
		client = analysis.NewLLMClient(cfg.Ai, sysLogger)
		log.Printf("[INFO] Using LLM analysis client: %s", cfg.Ai.LLMModel)
	} else {
		client = analysis.NewEchoClient()
		log.Printf("[WARN] No LLM API key configured, using echo analysis client")
	}

	synthesizer := flagging.NewSynthesizer(flagRepo, cfg.Flagging, sysLogger)

	auditRunner := runner.NewRunner(
		auditRepo,
		chunkRepo,
		resultRepo,
		scoreRepo,
		flagRepo,
		builder,
		client,
		synthesizer,
		cfg.Refinement,
		cfg.Runner,
		sysLogger,
	)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.AuditTopic, pubSub)
	auditService := service.NewAuditService(
		auditRepo,
		chunkRepo,
		flagRepo,
		publisherService,
		natsPub,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.AuditTopic,
		auditRunner,
		natsPub,
		sysLogger,
	)

	return &Container{
		AuditService:    auditService,
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
