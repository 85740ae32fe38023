package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/consolelogkochan/dev-cockpit/api"
	"github.com/consolelogkochan/dev-cockpit/cache"
	"github.com/consolelogkochan/dev-cockpit/config"
	"github.com/consolelogkochan/dev-cockpit/database"
	"github.com/consolelogkochan/dev-cockpit/models"
	"github.com/consolelogkochan/dev-cockpit/services"
	"github.com/consolelogkochan/dev-cockpit/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Info().Msg("Initializing app...")

	config.LoadDotEnv()
	cfg := config.New()

	if level, err := zerolog.ParseLevel(config.GetString(cfg, "LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	ctx := context.Background()
	if err := config.LoadFromSSM(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Error loading configuration from SSM")
	}

	db, err := openDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}

	// If generating models, run generation and exit
	if config.GetBool(cfg, "GENERATE_MODELS", false) {
		log.Info().Msg("Generating models and query helpers...")
		if err := models.GenerateModels(db, "./generated"); err != nil {
			log.Fatal().Err(err).Msg("Model generation failed")
		}
		return
	}

	if err := models.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Error migrating database")
	}

	currentDB := database.New(db)

	wikiCache, err := newCache(ctx, cfg, currentDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing cache")
	}

	files, err := newFileStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing file storage")
	}

	deps := api.Dependencies{
		Database:    currentDB,
		Storage:     files,
		GitHub:      services.NewGitHubService(config.GetString(cfg, "GITHUB_TOKEN", ""), config.GetString(cfg, "GITHUB_API_URL", "")),
		Notion:      services.NewNotionService(config.GetString(cfg, "NOTION_TOKEN", ""), config.GetString(cfg, "NOTION_API_URL", ""), wikiCache),
		ProjectLite: services.NewProjectLiteService(config.GetString(cfg, "PROJECT_LITE_URL", "")),
		News:        services.NewNewsService(config.GetString(cfg, "NEWS_FEED_URL", "")),
		Mailer:      services.NewMailer(config.GetString(cfg, "RESEND_API_KEY", ""), config.GetString(cfg, "RESEND_FROM_EMAIL", "")),
		AppURL:      config.GetString(cfg, "APP_URL", "http://localhost:5173"),
	}
	warnMissingIntegrations(cfg)

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(cfg, deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// openDatabase connects to DATABASE_URL, or builds a Supabase DSN from the
// SUPABASE_DB_* settings, and registers the optional read replica.
func openDatabase(cfg map[string]string) (*gorm.DB, error) {
	connStr := config.GetString(cfg, "DATABASE_URL", "")
	if connStr == "" {
		host := config.GetString(cfg, "SUPABASE_DB_HOST", "")
		if host == "" {
			return nil, fmt.Errorf("DATABASE_URL or SUPABASE_DB_HOST must be set")
		}
		connStr = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			host,
			config.GetString(cfg, "SUPABASE_DB_USER", ""),
			config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(cfg, "SUPABASE_DB_NAME", ""),
			config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
		)
		log.Info().Msg("Connecting to Supabase database...")
	}

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, err
	}

	if replica := config.GetString(cfg, "DB_REPLICA_URL", ""); replica != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{DSN: replica, PreferSimpleProtocol: true})},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
		log.Info().Msg("Read replica registered")
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto extension: %w", err)
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("test database connection: %w", err)
	}

	return db, nil
}

func newCache(ctx context.Context, cfg map[string]string, db database.Database) (cache.Cache, error) {
	switch driver := strings.ToLower(config.GetString(cfg, "CACHE_DRIVER", "memory")); driver {
	case "memory":
		return cache.NewMemory(config.GetInt(cfg, "CACHE_SIZE", cache.DefaultMemorySize))
	case "database":
		purged, err := db.CacheEntryRepo().PurgeExpired(ctx, time.Now())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to purge expired cache entries")
		} else if purged > 0 {
			log.Info().Int64("purged", purged).Msg("Purged expired cache entries")
		}
		return cache.NewDatabase(db.CacheEntryRepo()), nil
	default:
		return nil, fmt.Errorf("unsupported CACHE_DRIVER %q", driver)
	}
}

func newFileStorage(ctx context.Context, cfg map[string]string) (storage.FileStorage, error) {
	switch driver := strings.ToLower(config.GetString(cfg, "STORAGE_DRIVER", "local")); driver {
	case "local":
		return storage.NewLocal(config.GetString(cfg, "STORAGE_DIR", "storage"))
	case "s3":
		bucket := config.GetString(cfg, "S3_BUCKET", "")
		if bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
		region := config.GetString(cfg, "S3_REGION", config.GetString(cfg, "AWS_REGION", "ap-northeast-1"))
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return storage.NewS3(s3.NewFromConfig(awsCfg), bucket, region, config.GetString(cfg, "S3_PUBLIC_URL", "")), nil
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", driver)
	}
}

// warnMissingIntegrations reports at startup which widgets will answer with a
// configuration error.
func warnMissingIntegrations(cfg map[string]string) {
	for _, key := range []string{"GITHUB_TOKEN", "NOTION_TOKEN", "PROJECT_LITE_URL"} {
		if config.GetString(cfg, key, "") == "" {
			log.Warn().Str("setting", key).Msg("Integration setting is empty")
		}
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
