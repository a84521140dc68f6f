package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/artifacts"
	"documind-backend/internal/conversations"
	"documind-backend/internal/documents"
	"documind-backend/internal/insights"
	"documind-backend/internal/llm"
	geminiclient "documind-backend/internal/llm/gemini"
	openaiclient "documind-backend/internal/llm/openai"
	"documind-backend/internal/services/health"
	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/server"
	"documind-backend/internal/shared/storage/db"
	"documind-backend/internal/shared/storage/object"
	localstore "documind-backend/internal/shared/storage/object/local"
	s3store "documind-backend/internal/shared/storage/object/s3"
	"documind-backend/internal/usage"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	DocumentsRepo    documents.Repo
	ArtifactsRepo    artifacts.Repo
	TurnsRepo        conversations.Repo
	LLMClient        llm.Client
	DocumentsService *documents.Service
	UsageService     *usage.Service
	InsightsService  *insights.Service
	HealthService    *health.Service
	DocumentsHandler *documents.Handler
	InsightsHandler  *insights.Handler
	UsageHandler     *usage.Handler
}

// Options tweaks construction, mostly for tests.
type Options struct {
	// LLMClient overrides the provider client. Throttling is skipped
	// for overridden clients.
	LLMClient llm.Client
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient := opts.LLMClient
	if llmClient == nil {
		llmClient, err = buildLLMClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		LLMClient: llmClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		Health:          app.HealthService,
		DocumentHandler: app.DocumentsHandler,
		InsightsHandler: app.InsightsHandler,
		UsageHandler:    app.UsageHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			sqlDB.Close()
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.LLMProvider {
	case "openai":
		client, err = openaiclient.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMBaseURL, cfg.LLMTimeout)
	default:
		client, err = geminiclient.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	}
	if err != nil {
		return nil, err
	}
	return llm.Throttled(client, cfg.LLMMinInterval), nil
}

func buildServices(app *App) {
	var (
		docRepo  documents.Repo
		artRepo  artifacts.Repo
		turnRepo conversations.Repo
		usageSvc *usage.Service
	)
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		artRepo = &artifacts.PGRepo{DB: app.DB}
		turnRepo = &conversations.PGRepo{DB: app.DB}
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB, app.Config.DailyTaskLimit))
	} else {
		docRepo = documents.NewMemoryRepo()
		artRepo = artifacts.NewMemoryRepo()
		turnRepo = conversations.NewMemoryRepo()
		usageSvc = usage.NewService(app.Config.DailyTaskLimit)
	}

	docSvc := &documents.Service{
		Store:         app.Store,
		Repo:          docRepo,
		Artifacts:     artRepo,
		Conversations: turnRepo,
	}

	insightsSvc := &insights.Service{
		Docs:   docSvc,
		Cache:  artRepo,
		Turns:  turnRepo,
		Client: app.LLMClient,
		Prompts: llm.PromptBuilder{
			SummaryBudget: app.Config.SummaryBudget,
			MindMapBudget: app.Config.MindMapBudget,
		},
		Quota: usageSvc,
	}

	app.DocumentsRepo = docRepo
	app.ArtifactsRepo = artRepo
	app.TurnsRepo = turnRepo
	app.DocumentsService = docSvc
	app.UsageService = usageSvc
	app.InsightsService = insightsSvc
	app.HealthService = health.NewService(app.DB)
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.InsightsHandler = insights.NewHandler(insightsSvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
