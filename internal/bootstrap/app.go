package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"loangate-backend/internal/applications"
	"loangate-backend/internal/documents"
	"loangate-backend/internal/eligibility"
	"loangate-backend/internal/fields"
	"loangate-backend/internal/llm"
	"loangate-backend/internal/llm/gemini"
	"loangate-backend/internal/llm/openai"
	"loangate-backend/internal/ocr"
	"loangate-backend/internal/risk"
	"loangate-backend/internal/services/health"
	"loangate-backend/internal/shared/config"
	"loangate-backend/internal/shared/server"
	"loangate-backend/internal/shared/server/middleware"
	"loangate-backend/internal/shared/storage/db"
	"loangate-backend/internal/shared/storage/object"
	localstore "loangate-backend/internal/shared/storage/object/local"
	s3store "loangate-backend/internal/shared/storage/object/s3"
	"loangate-backend/internal/shared/telemetry"
	"loangate-backend/internal/uploads"
)

const redisPingTimeout = 2 * time.Second

// App holds shared dependencies and the wired router.
type App struct {
	Config              config.Config
	Router              *gin.Engine
	DB                  *sql.DB
	Redis               *redis.Client
	Store               object.ObjectStore
	Model               *risk.ModelContext
	Classifier          *risk.Classifier
	LLM                 llm.Completer
	ApplicationsRepo    applications.Repo
	DocumentsRepo       documents.Repo
	ApplicationsService *applications.Service
	DocumentsService    *documents.Service
	Pipeline            *documents.Pipeline
	Health              *health.Service
	RiskHandler         *risk.Handler
	ApplicationHandler  *applications.Handler
	DocumentHandler     *documents.Handler
	EligibilityHandler  *eligibility.Handler
	UploadHandler       *uploads.Handler
}

// Build prepares every dependency and wires the router. Model weights that
// cannot be loaded are fatal.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	model, err := risk.LoadModelContext(cfg.RiskModelPath)
	if err != nil {
		return nil, fmt.Errorf("load risk model: %w", err)
	}
	telemetry.Info("bootstrap.model_loaded", map[string]any{
		"version":     model.Version(),
		"fingerprint": model.Fingerprint(),
		"path":        cfg.RiskModelPath,
	})

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Redis:  buildRedis(ctx, cfg),
		Model:  model,
	}

	if err := wire(ctx, app); err != nil {
		if closeErr := app.Close(); closeErr != nil {
			telemetry.Warn("bootstrap.close_failed", map[string]any{"error": closeErr})
		}
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		Health:             app.Health,
		RiskHandler:        app.RiskHandler,
		ApplicationHandler: app.ApplicationHandler,
		DocumentHandler:    app.DocumentHandler,
		EligibilityHandler: app.EligibilityHandler,
		UploadHandler:      app.UploadHandler,
		RateLimiter:        rateLimiter(app.Redis),
	})

	return app, nil
}

// wire builds the object store, LLM client and services on top of the
// connections already held by app.
func wire(ctx context.Context, app *App) error {
	store, err := buildStore(ctx, app.Config)
	if err != nil {
		return err
	}
	app.Store = store

	completer, err := buildLLM(app.Config)
	if err != nil {
		return err
	}
	app.LLM = completer

	return buildServices(ctx, app)
}

// rateLimiter shares extraction limits through Redis when it is available.
func rateLimiter(client *redis.Client) middleware.Limiter {
	if client == nil {
		return middleware.NewMemoryLimiter(nil)
	}
	return middleware.NewRedisLimiter(client, "loangate:ratelimit:")
}

// Close releases the database pool and the Redis client.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_missing", map[string]any{"fallback": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{
				"fallback": "memory",
				"error":    err,
			})
			return nil, nil
		}
		return nil, err
	}
	return migrateOnStart(ctx, sqlDB, cfg.Env)
}

// migrateOnStart applies pending migrations. On failure the pool is closed;
// dev-like environments fall back to memory repositories.
func migrateOnStart(ctx context.Context, sqlDB *sql.DB, env string) (*sql.DB, error) {
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if isDevLike(env) {
			telemetry.Warn("bootstrap.migrations_failed", map[string]any{
				"fallback": "memory",
				"error":    err,
			})
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildRedis returns nil when no address is configured or the server does
// not answer; scoring then runs without a cache.
func buildRedis(ctx context.Context, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{
			"addr":  addr,
			"error": err,
		})
		_ = client.Close()
		return nil
	}
	return client
}

func buildLLM(cfg config.Config) (llm.Completer, error) {
	timeout := llm.Timeout(cfg.ExtractionTimeout)
	var (
		key       string
		construct func() (llm.Completer, error)
	)
	switch cfg.LLMProvider {
	case "none":
		return llm.PlaceholderClient{}, nil
	case "openai":
		key = cfg.OpenAIAPIKey
		construct = func() (llm.Completer, error) { return openai.NewClient(key, cfg.LLMModel, timeout) }
	default:
		key = cfg.GeminiAPIKey
		construct = func() (llm.Completer, error) { return gemini.NewClient(key, cfg.LLMModel, timeout) }
	}

	if strings.TrimSpace(key) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_key_missing", map[string]any{
				"provider": cfg.LLMProvider,
				"fallback": "placeholder",
			})
			return llm.PlaceholderClient{}, nil
		}
		return nil, fmt.Errorf("%s api key is required", cfg.LLMProvider)
	}
	return construct()
}

func buildOCR(cfg config.Config) (*ocr.Extractor, error) {
	switch cfg.OCREngine {
	case "", "tesseract":
		return ocr.NewExtractor(ocr.NewTesseractEngine(cfg.TesseractPath, cfg.OCRLanguage)), nil
	default:
		return nil, fmt.Errorf("unsupported OCR_ENGINE %q", cfg.OCREngine)
	}
}

func buildServices(ctx context.Context, app *App) error {
	var (
		appRepo applications.Repo
		docRepo documents.Repo
	)
	if app.DB != nil {
		appRepo = &applications.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		appRepo = applications.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
	}

	classifier := &risk.Classifier{
		Model:     app.Model,
		Threshold: app.Config.RiskThreshold,
		CacheTTL:  app.Config.RiskCacheTTL,
	}
	if app.Redis != nil {
		classifier.Cache = risk.NewRedisCache(app.Redis, "")
	}

	extractor, err := buildOCR(app.Config)
	if err != nil {
		return err
	}

	pipeline := &documents.Pipeline{
		Store:  app.Store,
		Repo:   docRepo,
		OCR:    extractor,
		Fields: fields.NewExtractor(app.LLM),
	}
	docSvc := documents.NewService(app.Store, docRepo)
	appSvc := applications.NewService(appRepo, classifier)

	if app.DB != nil {
		app.Health = health.NewService(app.DB, app.Model.Version())
	} else {
		app.Health = health.NewService(nil, app.Model.Version())
	}

	if app.Config.ObjectStoreType == "s3" {
		h, err := uploads.NewHandler(ctx, app.Config.AWSRegion, app.Config.S3Bucket, app.Config.S3Prefix)
		if err != nil {
			return fmt.Errorf("init uploads: %w", err)
		}
		app.UploadHandler = h
	}

	app.ApplicationsRepo = appRepo
	app.DocumentsRepo = docRepo
	app.Classifier = classifier
	app.Pipeline = pipeline
	app.ApplicationsService = appSvc
	app.DocumentsService = docSvc
	app.RiskHandler = risk.NewHandler(classifier)
	app.ApplicationHandler = applications.NewHandler(appSvc)
	app.DocumentHandler = documents.NewHandler(pipeline, docSvc)
	app.EligibilityHandler = eligibility.NewHandler()

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
