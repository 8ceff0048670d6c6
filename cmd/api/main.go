package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/cft-genai/internal/application"
	appanalysis "github.com/bryanwahyu/cft-genai/internal/application/analysis"
	appfilings "github.com/bryanwahyu/cft-genai/internal/application/filings"
	"github.com/bryanwahyu/cft-genai/internal/config"
	domain "github.com/bryanwahyu/cft-genai/internal/domain/analysis"
	"github.com/bryanwahyu/cft-genai/internal/domain/documents"
	"github.com/bryanwahyu/cft-genai/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/cft-genai/internal/infra/db/mysql"
	"github.com/bryanwahyu/cft-genai/internal/infra/db/postgres"
	"github.com/bryanwahyu/cft-genai/internal/infra/edgar"
	"github.com/bryanwahyu/cft-genai/internal/infra/extract"
	"github.com/bryanwahyu/cft-genai/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/cft-genai/internal/infra/storage"
	"github.com/bryanwahyu/cft-genai/internal/logging"
	"github.com/bryanwahyu/cft-genai/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checkers := map[string]middleware.HealthChecker{}

	// analysis history (optional)
	var repo domain.Repository
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		logger.Fatal("database connect error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
		if cfg.Database.Driver == "postgres" {
			repo = postgres.NewAnalysisRepository(db)
		} else {
			repo = mysqlp.NewAnalysisRepository(db)
		}
	}

	// upload archive (optional)
	var store documents.Store
	if cfg.Minio.Enabled {
		s, err := minioStore.New(ctx, cfg.Minio)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		store = s
	}

	edgarOpts := []edgar.ClientOption{
		edgar.WithRateLimit(cfg.Edgar.RateLimit),
		edgar.WithTimeout(cfg.Edgar.Timeout),
		edgar.WithMaxChars(cfg.Edgar.MaxDocumentChars),
		edgar.WithLogger(logger),
	}
	if cfg.Edgar.DataURL != "" {
		edgarOpts = append(edgarOpts, edgar.WithDataURL(cfg.Edgar.DataURL))
	}
	if cfg.Edgar.ArchiveURL != "" {
		edgarOpts = append(edgarOpts, edgar.WithArchiveURL(cfg.Edgar.ArchiveURL))
	}
	sec := edgar.NewClient(cfg.Edgar.UserAgent, edgarOpts...)

	completion := openai.NewClient(cfg.OpenAI, logger)

	analysisSvc := &appanalysis.Service{
		AI:        completion,
		Documents: sec,
		Extractor: extract.NewPDF(cfg.Edgar.MaxDocumentChars),
		Store:     store,
		Repo:      repo,
		Clock:     application.SystemClock{},
		Model:     completion.Model(),
		Logger:    logger,
	}
	filingsSvc := appfilings.NewService(sec)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	go limiter.Cleanup(ctx, 5*time.Minute)

	handler := httpserver.NewRouter(analysisSvc, filingsSvc, httpserver.Options{
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		APIKeys:        cfg.Auth.APIKeys,
		RateLimiter:    limiter,
		HealthCheckers: checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("model", completion.Model()),
			zap.String("database", cfg.Database.Driver),
			zap.Bool("minio", cfg.Minio.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		return mysqlp.Connect(ctx, cfg.MySQLDSN())
	case "postgres":
		return postgres.Connect(ctx, cfg.PostgresDSN())
	default:
		return nil, nil
	}
}
