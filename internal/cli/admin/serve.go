package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/reslab/paperlens/internal/api/handlers"
	"github.com/reslab/paperlens/internal/api/middleware"
	"github.com/reslab/paperlens/internal/chunker"
	"github.com/reslab/paperlens/internal/config"
	"github.com/reslab/paperlens/internal/database"
	"github.com/reslab/paperlens/internal/domain"
	"github.com/reslab/paperlens/internal/jobs"
	"github.com/reslab/paperlens/internal/llm"
	"github.com/reslab/paperlens/internal/pipeline"
	"github.com/reslab/paperlens/internal/repository"
	"github.com/reslab/paperlens/internal/scholar"
	"github.com/reslab/paperlens/internal/server"
	"github.com/reslab/paperlens/internal/service"
	"github.com/reslab/paperlens/internal/storage"
	"github.com/reslab/paperlens/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the paperlens API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	paperRepo := repository.NewPaperRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	runRepo := repository.NewRunRepository(pool)
	stageResultRepo := repository.NewStageResultRepository(pool)
	citationRepo := repository.NewCitationRepository(pool)
	comparisonRepo := repository.NewComparisonRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	var blobs service.BlobStore
	var publisher handlers.ReportPublisher
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		blobs = s3Client
		publisher = s3Client
	}

	var collaborator interface {
		Complete(ctx context.Context, prompt string) (string, error)
		CompleteStreaming(ctx context.Context, prompt string, onDelta func(string)) (string, error)
		Model() string
	}
	if cfg.HasOpenAI() {
		collaborator = llm.NewClientWithConfig(llm.Config{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			MaxRetries: cfg.MaxRetries,
		})
	} else {
		log.Println("PAPERLENS_OPENAI_API_KEY not set, analysis endpoints will refuse requests")
		collaborator = &noOpCollaborator{}
	}

	splitter := chunker.New(chunker.Config{
		MaxSize:  cfg.ChunkSize,
		Lookback: cfg.ChunkLookback,
	})
	runner := pipeline.New(collaborator, pipeline.Config{
		Workers:       cfg.StageWorkers,
		MaxStageInput: cfg.MaxStageInput,
	})
	enricher := scholar.NewClient(cfg.SemanticScholarAPIKey)

	paperSvc := service.NewPaperService(paperRepo, chunkRepo, txRunner, splitter, blobs)
	analysisSvc := service.NewAnalysisService(runRepo, stageResultRepo, citationRepo, paperRepo, chunkRepo, runner, enricher, service.AnalysisConfig{
		MaxRetries: cfg.MaxRetries,
		ReportDir:  cfg.ReportDir,
	})
	compareSvc := service.NewCompareService(paperRepo, stageResultRepo, comparisonRepo, collaborator)
	chatSvc := service.NewChatService(paperRepo, stageResultRepo, collaborator, cfg.MaxStageInput)

	worker := jobs.NewWorker(jobs.NewAnalysisWorker(runRepo, analysisSvc), 5*time.Second)
	go worker.Start(ctx)
	log.Println("analysis worker started")

	routerCfg := server.RouterConfig{
		PaperHandler:   handlers.NewPaperHandler(paperSvc, analysisSvc, cfg.MaxUploadBytes()),
		RunHandler:     handlers.NewRunHandler(analysisSvc),
		CompareHandler: handlers.NewCompareHandler(compareSvc),
		ChatHandler:    handlers.NewChatHandler(chatSvc),
		ReportHandler:  handlers.NewReportHandler(analysisSvc, publisher),
		UploadLimiter:  middleware.NewUploadRateLimiter(cfg.UploadsPerHour, time.Hour),
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	worker.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpCollaborator struct{}

var errNoCollaborator = domain.NewDomainError(domain.ErrCodeCollaboratorFailed, "collaborator not configured: PAPERLENS_OPENAI_API_KEY required")

func (c *noOpCollaborator) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errNoCollaborator
}

func (c *noOpCollaborator) CompleteStreaming(ctx context.Context, prompt string, onDelta func(string)) (string, error) {
	return "", errNoCollaborator
}

func (c *noOpCollaborator) Model() string {
	return "none"
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
