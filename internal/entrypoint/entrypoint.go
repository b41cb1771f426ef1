package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/yodhcn/kikoeru-express/internal/audit"
	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/database"
	"github.com/yodhcn/kikoeru-express/internal/database/schema"
	http_controllers "github.com/yodhcn/kikoeru-express/internal/http"
	"github.com/yodhcn/kikoeru-express/internal/ingest"
	"github.com/yodhcn/kikoeru-express/internal/logging"
	"github.com/yodhcn/kikoeru-express/internal/scheduler"
	"github.com/yodhcn/kikoeru-express/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *log.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server", "timeout", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first so nothing writes after the store closes.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "err", err)
	}

	logger.Info("server exiting")
}

// Run wires the store, background workers and HTTP API together and
// serves until interrupted.
func Run(cfg *config.Config, version string) {
	logger := logging.New(os.Stderr, cfg.Global.LogLevel)
	log.SetDefault(logger)
	logger.Info("starting kikoeru", "version", version)

	if cfg.Catalog.ReadOnly {
		logger.Warn("read-only mode enabled, API writes will be rejected")
	}
	if cfg.Global.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(database.Options{
		Path:       cfg.Database.Path,
		LogLevel:   schema.ParseLogLevel(cfg.Database.LogLevel),
		PageSize:   cfg.Catalog.PageSize,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("failed to initialize database", "err", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", "err", err)
		}
	}()

	auditService := audit.NewService(db.Audit, logger)
	defer auditService.Wait()

	pipeline := ingest.NewPipeline(db.Catalog,
		ingest.WithRecorder(auditService),
		ingest.WithArchiver(audit.NewAuditor(cfg.Audit.Dir)),
		ingest.WithLogger(logging.With(logger, "component", "ingest")),
	)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize task queue", "err", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", "err", err)
			}
		}()

		taskClient.Register(
			tasks.NewIngestWorkQueue(pipeline, logger),
			tasks.NewUpdateWorkMetricsQueue(db.Catalog, auditService, logger),
			tasks.NewRemoveWorkQueue(db.Catalog, auditService, logger),
			tasks.NewCleanupAuditEventsQueue(auditService, logger),
			tasks.NewScanOrphansQueue(db, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var inbox *scheduler.InboxScheduler
	if cfg.Ingest.Enabled {
		inbox = scheduler.NewInboxScheduler(pipeline, scheduler.InboxConfig{
			InboxDir:   cfg.Ingest.InboxDir,
			ArchiveDir: cfg.Ingest.ArchiveDir,
			Schedule:   cfg.Ingest.Schedule,
		}, logger)
		if err := inbox.Start(context.Background()); err != nil {
			logger.Fatal("failed to start inbox scheduler", "err", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Version:            version,
		IdentityHeader:     cfg.Catalog.IdentityHeader,
		DefaultUser:        cfg.Catalog.DefaultUser,
		ReadOnly:           cfg.Catalog.ReadOnly,
		Users:              db.Users,
		Lister:             db.Query,
		Works:              db.Catalog,
		Tags:               db.Tags,
		Mylists:            db.Mylists,
		Playlists:          db.Playlists,
		Recorder:           auditService,
		Ingester:           pipeline,
		Audit:              auditService,
		Health:             db,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		Logger:             logger,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if inbox != nil {
			inbox.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, logger, onShutdown)
}
