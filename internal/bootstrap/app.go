package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/wellarchitected"
	"github.com/gin-gonic/gin"

	"github.com/dajrodri/well-architected-iac-analyzer/internal/analysis"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/cancel"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/generation"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/inference"
	openaiclient "github.com/dajrodri/well-architected-iac-analyzer/internal/inference/openai"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/progress"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/queue"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/retrieval"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/services/health"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/config"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/server"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/db"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/object"
	localstore "github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/object/local"
	s3store "github.com/dajrodri/well-architected-iac-analyzer/internal/shared/storage/object/s3"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/taxonomy"
	"github.com/dajrodri/well-architected-iac-analyzer/internal/workitems"
)

// App holds shared dependencies for the API server and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	ItemsRepo   workitems.Repo
	Items       *workitems.Service
	Taxonomy    *taxonomy.Cache
	Retriever   retrieval.Retriever
	Invoker     inference.Invoker
	Broadcaster *progress.Broadcaster
	Cancels     *cancel.Registry
	Analysis    *analysis.Orchestrator
	Generation  *generation.Orchestrator

	WorkItemHandler   *workitems.Handler
	AnalysisHandler   *analysis.Handler
	GenerationHandler *generation.Handler
	ProgressHandler   *progress.Handler
	Health            *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.Health,
		WorkItemHandler:   app.WorkItemHandler,
		AnalysisHandler:   app.AnalysisHandler,
		GenerationHandler: app.GenerationHandler,
		ProgressHandler:   app.ProgressHandler,
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

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var itemsRepo workitems.Repo
	if app.DB != nil {
		itemsRepo = &workitems.PGRepo{DB: app.DB}
	} else {
		itemsRepo = workitems.NewMemoryRepo()
	}
	items := &workitems.Service{Repo: itemsRepo, Store: app.Store}

	var answers taxonomy.AnswerLister
	retriever := retrieval.Retriever(retrieval.Empty{})
	if strings.TrimSpace(cfg.AWSRegion) != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("load aws config: %w", err)
		}
		answers = taxonomy.NewWAClient(wellarchitected.NewFromConfig(awsCfg), cfg.LensAlias)
		if strings.TrimSpace(cfg.KnowledgeBaseID) != "" {
			retriever = retrieval.NewKnowledgeBase(bedrockagentruntime.NewFromConfig(awsCfg), cfg.KnowledgeBaseID)
		}
	}
	if _, ok := retriever.(retrieval.Empty); ok {
		log.Printf("bootstrap: KNOWLEDGE_BASE_ID empty; assessments run without retrieved guidance")
	}

	taxonomyCache := taxonomy.NewCache(
		&taxonomy.ObjectSource{Store: app.Store, Key: cfg.TaxonomyKey},
		answers,
	)

	if strings.TrimSpace(cfg.InferenceAPIKey) == "" {
		log.Printf("bootstrap: INFERENCE_API_KEY empty; inference calls will fail until it is set")
	}
	invoker := openaiclient.NewClient(cfg.InferenceAPIKey, cfg.InferenceBaseURL, cfg.InferenceModel, cfg.InferenceMaxTokens)

	broadcaster := progress.NewBroadcaster()
	cancels := cancel.NewRegistry()

	analysisOrch := &analysis.Orchestrator{
		Items:     items,
		Taxonomy:  taxonomyCache,
		Retriever: retriever,
		Invoker:   invoker,
		Notifier:  broadcaster,
		TopK:      cfg.RetrievalTopK,
	}
	generationOrch := &generation.Orchestrator{
		Items:         items,
		Invoker:       invoker,
		Notifier:      broadcaster,
		MaxIterations: cfg.GenerationMaxIterations,
		PaceDelay:     time.Duration(cfg.GenerationPaceSeconds) * time.Second,
	}

	app.ItemsRepo = itemsRepo
	app.Items = items
	app.Taxonomy = taxonomyCache
	app.Retriever = retriever
	app.Invoker = invoker
	app.Broadcaster = broadcaster
	app.Cancels = cancels
	app.Analysis = analysisOrch
	app.Generation = generationOrch

	app.WorkItemHandler = workitems.NewHandler(items)
	app.AnalysisHandler = analysis.NewHandler(analysisOrch, cancels)
	app.AnalysisHandler.Queue = app.Queue
	app.GenerationHandler = generation.NewHandler(generationOrch, cancels)
	app.ProgressHandler = &progress.Handler{Broadcaster: broadcaster}
	app.Health = health.NewService(app.DB)

	return nil
}
