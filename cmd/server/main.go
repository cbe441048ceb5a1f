package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/ai-tax-agent/internal/application/port"
	"github.com/garyjia/ai-tax-agent/internal/application/service"
	"github.com/garyjia/ai-tax-agent/internal/config"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/external/openai"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/extraction"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/form"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/persistence/repository"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/storage"
	"github.com/garyjia/ai-tax-agent/internal/infrastructure/taxcalc"
	httpserver "github.com/garyjia/ai-tax-agent/internal/interfaces/http"
	"github.com/garyjia/ai-tax-agent/internal/metrics"
	"github.com/garyjia/ai-tax-agent/migrations"
	"github.com/garyjia/ai-tax-agent/pkg/database"
	"github.com/garyjia/ai-tax-agent/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	kv := utils.NewKVLogger(logger)

	logger.Info("Starting AI Tax Agent backend",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("openai", cfg.HasOpenAI()))

	// Initialize database
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		logger.Fatal("Failed to create database directory", zap.Error(err))
	}
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.NewMigrator(db, logger).RunMigrations(migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	docRepo := repository.NewDocumentRepository(db.DB, logger)
	infoRepo := repository.NewPersonalInfoRepository(db.DB, logger)
	compRepo := repository.NewComputationRepository(db.DB, logger)
	txManager := sqlite.NewDB(db.DB, logger)

	files := storage.NewLocalFileStorage(cfg.Storage.BaseDir, logger)
	layout := service.Layout{UploadDir: cfg.Storage.UploadDir, ArtifactDir: cfg.Storage.ArtifactDir}

	uploadMetrics, err := metrics.NewUploadMetrics()
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}

	// OpenAI is optional
	var (
		aiExtractor port.AIFieldExtractor
		completer   port.ChatCompleter
	)
	if cfg.HasOpenAI() {
		prompts := openai.DefaultPrompts()
		if cfg.OpenAI.PromptsPath != "" {
			prompts, err = openai.LoadPrompts(cfg.OpenAI.PromptsPath)
			if err != nil {
				logger.Fatal("Failed to load prompts", zap.Error(err))
			}
		}
		client := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
		completer = openai.NewChatClient(client, cfg.OpenAI.Model, prompts, logger)
		if cfg.OpenAI.AIExtraction {
			aiExtractor = openai.NewFieldExtractor(client, cfg.OpenAI.Model, prompts, logger)
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, advisor answers with its fallback and extraction is pattern only")
	}

	extractor := extraction.NewExtractor(
		extraction.NewPDFTextExtractor(cfg.Tax.MaxPDFPages, logger),
		aiExtractor,
		logger,
	)

	// Initialize services
	services := httpserver.Services{
		Registry: service.NewRegistryService(
			docRepo, infoRepo, compRepo, txManager, files, extractor, uploadMetrics,
			service.RegistryConfig{
				Layout:            layout,
				AllowedExtensions: cfg.Storage.AllowedExtensions,
				MaxFileSize:       cfg.Storage.MaxFileSize,
			},
			kv,
		),
		PersonalInfo: service.NewPersonalInfoService(infoRepo, kv),
		Computation: service.NewComputationService(
			docRepo, infoRepo, compRepo,
			taxcalc.NewCalculator2024(),
			form.NewExcelRenderer(cfg.Tax.FormTemplatePath, logger),
			files, uploadMetrics, layout, kv,
		),
		Advisor: service.NewAdvisorService(completer, service.HistoryPolicy{
			MaxMessages: cfg.Advisor.HistoryMessages,
			MaxChars:    cfg.Advisor.HistoryChars,
		}, kv),
	}

	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		Debug:           cfg.Logger.Level == "debug",
	}, services, kv)

	// Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server exited successfully")
}
