package bootstrap

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/archive"
	"interview-backend/internal/sessions"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/server"
	"interview-backend/internal/shared/storage/db"
	"interview-backend/internal/store"
	"interview-backend/internal/tokens"
	"interview-backend/internal/uploads"
)

// App holds shared dependencies built from config.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    store.Store
	Tokens   *tokens.Registry
	Sessions *sessions.Manager
	Ingestor *uploads.Ingestor

	SessionsHandler *sessions.Handler
	UploadsHandler  *uploads.Handler
	TokensHandler   *tokens.Handler
}

// Build prepares the full dependency graph and router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	st, sqlDB := buildStore(ctx, cfg)

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Printf("invalid RECORDER_TIMEZONE %q, falling back to UTC: %v", cfg.TimeZone, err)
		loc = time.UTC
	}

	registry := tokens.NewRegistry(st)
	manager := sessions.NewManager(st, registry, cfg.UploadRoot, loc, cfg.MaxQuestions)

	if cfg.ArchiveS3Bucket != "" {
		archiver, err := archive.New(ctx, cfg.AWSRegion, cfg.ArchiveS3Bucket, cfg.ArchiveS3Prefix)
		if err != nil {
			log.Printf("archive disabled: %v", err)
		} else {
			manager.Archive = archiver
		}
	}

	ingestor := uploads.NewIngestor(st, uploads.NewProbe(cfg.FFProbePath), cfg.UploadRoot, cfg.MaxUploadBytes, cfg.MinUploadBytes)

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Store:           st,
		Tokens:          registry,
		Sessions:        manager,
		Ingestor:        ingestor,
		SessionsHandler: sessions.NewHandler(manager),
		UploadsHandler:  uploads.NewHandler(ingestor, ""),
		TokensHandler:   tokens.NewHandler(registry),
	}
	app.Router = server.NewRouter(cfg, app.SessionsHandler, app.UploadsHandler, app.TokensHandler)
	return app, nil
}

// buildStore prefers Postgres when DATABASE_URL is set, falling back to the
// JSON file store on any connect/migrate failure.
func buildStore(ctx context.Context, cfg config.Config) (store.Store, *sql.DB) {
	if cfg.DatabaseURL == "" {
		return store.NewFileStore(cfg.StateFile), nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database, falling back to file store: %v", err)
		return store.NewFileStore(cfg.StateFile), nil
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations, falling back to file store: %v", err)
		sqlDB.Close()
		return store.NewFileStore(cfg.StateFile), nil
	}
	return store.NewPGStore(sqlDB), sqlDB
}
