package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"grc-backend/internal/extract"
	"grc-backend/internal/imports"
	"grc-backend/internal/ingest"
	"grc-backend/internal/llm"
	"grc-backend/internal/llm/chatmodel"
	openai "grc-backend/internal/llm/openai"
	"grc-backend/internal/rbac"
	"grc-backend/internal/services/health"
	"grc-backend/internal/shared/config"
	"grc-backend/internal/shared/server"
	"grc-backend/internal/shared/server/middleware"
	"grc-backend/internal/shared/storage/db"
	"grc-backend/internal/shared/storage/object"
	localstore "grc-backend/internal/shared/storage/object/local"
	s3store "grc-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies and the mounted router.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Store          object.ObjectStore
	Completer      llm.Completer
	Catalog        *ingest.Catalog
	Pipeline       *ingest.Pipeline
	RecordsRepo    imports.RecordsRepo
	Permissions    rbac.Checker
	ImportsService *imports.Service
	ImportsHandler *imports.Handler
	Health         *health.Service
}

// Option overrides a dependency Build would otherwise construct.
type Option func(*App)

// WithCompleter replaces the configured language-model provider.
func WithCompleter(c llm.Completer) Option {
	return func(a *App) { a.Completer = c }
}

// WithPermissions replaces the configured permission checker.
func WithPermissions(c rbac.Checker) Option {
	return func(a *App) { a.Permissions = c }
}

// Build prepares dependencies and mounts the router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.LLMProvider) == "" {
		cfg.LLMProvider = "none"
	}
	ctx := context.Background()

	app := &App{Config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		return nil, err
	}
	if app.Completer == nil {
		if app.Completer, err = buildCompleter(ctx, cfg); err != nil {
			return nil, err
		}
	}
	if app.Permissions == nil {
		if app.Permissions, err = buildPermissions(cfg, sqlDB); err != nil {
			return nil, err
		}
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		Health:        app.Health,
		ImportHandler: app.ImportsHandler,
		Permissions:   app.Permissions,
		RateLimiter:   middleware.NewRateLimiter(nil),
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

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			log.Printf("bootstrap: migrations failed: %v", err)
		}
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

// buildCompleter selects the language-model provider. Dev environments
// without credentials fall back to the placeholder so the API still boots.
func buildCompleter(ctx context.Context, cfg config.Config) (llm.Completer, error) {
	if cfg.LLMProvider == "none" {
		return llm.PlaceholderCompleter{}, nil
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" && isDevLike(cfg.Env) {
		log.Printf("bootstrap: LLM_API_KEY empty; %s provider disabled", cfg.LLMProvider)
		return llm.PlaceholderCompleter{}, nil
	}

	switch cfg.LLMProvider {
	case "claude", "gemini":
		return chatmodel.New(ctx, chatmodel.Options{
			Provider:    cfg.LLMProvider,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			Temperature: cfg.LLMTemperature,
		})
	default:
		return openai.NewClient(openai.Options{
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			Temperature: cfg.LLMTemperature,
			Timeout:     cfg.LLMTimeout,
		})
	}
}

// buildPermissions prefers RBAC_GRANTS, then the user_permissions table.
// Dev environments with neither grant everything.
func buildPermissions(cfg config.Config, sqlDB *sql.DB) (rbac.Checker, error) {
	switch {
	case strings.TrimSpace(cfg.RBACGrants) != "":
		return rbac.ParseGrants(cfg.RBACGrants), nil
	case sqlDB != nil:
		return &rbac.PGChecker{DB: sqlDB}, nil
	case isDevLike(cfg.Env):
		log.Printf("bootstrap: no RBAC source configured; granting all permissions")
		return rbac.ParseGrants(rbac.Wildcard + "=" + rbac.Wildcard), nil
	default:
		return nil, fmt.Errorf("RBAC_GRANTS or DATABASE_URL is required")
	}
}

func buildServices(app *App) {
	cfg := app.Config

	var repo imports.RecordsRepo
	if app.DB != nil {
		repo = &imports.PGRepo{DB: app.DB}
	} else {
		repo = imports.NewMemoryRepo()
	}

	imp := cfg.Import
	registry := extract.DefaultRegistry(extract.WithMinTextChars(imp.MinTextChars))
	fields := ingest.NewFieldExtractor(app.Completer, ingest.FieldOptions{
		FieldTimeout:      imp.FieldTimeout,
		MaxAttempts:       imp.MaxAttempts,
		ChunkChars:        imp.ChunkChars,
		MaxChunks:         imp.MaxChunks,
		FieldContextChars: imp.FieldContextChars,
	})
	normalizer := ingest.Normalizer{Now: func() time.Time { return time.Now().UTC() }}

	app.Catalog = ingest.DefaultCatalog()
	app.Pipeline = ingest.NewPipeline(registry, fields, normalizer)
	app.RecordsRepo = repo
	app.ImportsService = &imports.Service{
		Catalog:   app.Catalog,
		Pipeline:  app.Pipeline,
		Repo:      repo,
		Store:     app.Store,
		Completer: app.Completer,
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
	}
	app.ImportsHandler = imports.NewHandler(app.ImportsService)
	app.Health = health.NewService(app.DB, cfg.LLMProvider, cfg.ObjectStoreType)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
