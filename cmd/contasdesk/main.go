package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/config"
	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/handler"
	"github.com/gestorcontas/contas-desk-go/internal/infra/boltstore"
	"github.com/gestorcontas/contas-desk-go/internal/infra/cache"
	"github.com/gestorcontas/contas-desk-go/internal/infra/clock"
	"github.com/gestorcontas/contas-desk-go/internal/infra/gemini"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"
	"github.com/gestorcontas/contas-desk-go/internal/infra/resilience"
	"github.com/gestorcontas/contas-desk-go/internal/infra/viacep"
	"github.com/gestorcontas/contas-desk-go/internal/port"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("db_path", cfg.DBPath),
		zap.Duration("sweep_interval", cfg.SweepInterval),
		zap.Duration("import_pre_delay", cfg.ImportPreDelay),
		zap.Int("import_max_attempts", cfg.ImportMaxAttempts),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Bool("dev_tools", cfg.DevTools),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "contas-desk")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Persistence ---
	store, err := boltstore.Open(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer store.Close()

	// --- Clock ---
	var appClock port.Clock = clock.System{}
	var devClock *clock.Adjustable
	if cfg.DevTools {
		devClock = clock.NewAdjustable()
		appClock = devClock
		logger.Warn("dev tools enabled: simulated clock endpoints exposed")
	}

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	cb := resilience.NewCircuitBreaker("viacep")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	cepClient := viacep.NewClient(httpClient, cfg.ViaCEPBaseURL, cb, resilienceCfg, logger)
	cepCache := cache.New[*domain.Address](cfg.CacheTTL)

	var parser port.DocumentParser = gemini.Disabled{}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set: document imports are disabled until configured")
	} else {
		gp, err := gemini.New(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ParseTimeout, logger)
		if err != nil {
			logger.Fatal("failed to init document parser", zap.Error(err))
		}
		defer gp.Close()
		parser = gp
	}

	// --- Services ---
	payablesSvc, err := service.NewPayablesService(store, appClock, metrics, logger)
	if err != nil {
		logger.Fatal("failed to init payables service", zap.Error(err))
	}
	refdataSvc, err := service.NewRefDataService(store, logger)
	if err != nil {
		logger.Fatal("failed to init refdata service", zap.Error(err))
	}
	directorySvc, err := service.NewDirectoryService(store, cepClient, cepCache, appClock, metrics, logger)
	if err != nil {
		logger.Fatal("failed to init directory service", zap.Error(err))
	}
	importSvc := service.NewImportService(parser, payablesSvc, cfg.ImportPreDelay, cfg.ImportMaxAttempts, metrics, logger)

	authSvc := service.NewAuthService(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	if authSvc.Enabled() {
		logger.Info("auth enabled", zap.String("admin_email", cfg.AdminEmail))
	} else {
		logger.Warn("auth not configured: back-office API is open")
	}

	// --- Recurring sweep ---
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if _, err := payablesSvc.Sweep(sweepCtx); err != nil {
					logger.Error("recurring sweep failed", zap.Error(err))
				}
			}
		}
	}()

	// --- Router ---
	router := handler.NewRouter(payablesSvc, importSvc, directorySvc, refdataSvc, authSvc, devClock, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // import batches parse synchronously
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	stopSweep()
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
