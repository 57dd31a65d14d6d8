package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"filedrop-api/config"
	"filedrop-api/internal/application/ports"
	"filedrop-api/internal/application/services"
	domain "filedrop-api/internal/domain/link"
	"filedrop-api/internal/infrastructure/blob"
	"filedrop-api/internal/infrastructure/metrics"
	"filedrop-api/internal/infrastructure/mq"
	"filedrop-api/internal/infrastructure/registry"
	"filedrop-api/internal/interface/api/rest"
	"filedrop-api/internal/interface/api/rest/middleware"
)

type App struct {
	logger   *zap.Logger
	cfg      config.Config
	registry domain.Registry
	blob     ports.BlobStore
	httpSrv  *http.Server
	router   *gin.Engine
	mCounter *prometheus.CounterVec
	mq       ports.RabbitMQ
	sweeper  *services.Sweeper
	defaults services.LinkDefaults
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}

	// config
	if err = godotenv.Load(".env"); err != nil {
		logger.Warn("no .env file loaded", zap.Error(err))
	}
	cfg := config.Load()
	if cfg.App.UploadSecret == "" {
		logger.Fatal("SERVICE_UPLOAD_SECRET is required")
	}

	maxDownloads, err := cfg.MaxDownloads()
	if err != nil {
		logger.Fatal("link config error", zap.Error(err))
	}
	ttl, err := cfg.LinkTTL()
	if err != nil {
		logger.Fatal("link TTL config error", zap.Error(err))
	}
	cleanupInterval, err := cfg.CleanupInterval()
	if err != nil {
		logger.Fatal("cleanup interval config error", zap.Error(err))
	}

	// metrics
	mCounter := metrics.NewCounter()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogGin(logger, mCounter))

	// httpServer
	httpSrv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: r,
	}

	// blob store
	blobStore, err := blob.New(afero.NewOsFs(), logger, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init blob store", zap.Error(err))
	}

	// link registry
	linkRegistry := registry.New()

	// rabbitMQ
	rabbitDsn, err := cfg.AMQPDSN()
	if err != nil {
		logger.Fatal("RabbitMQ config error", zap.Error(err))
	}
	rbMQ := mq.New(cfg.MQ, logger)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		logger.Fatal("failed to connect to rabbitMQ", zap.Error(err))
	}
	if err = rbMQ.Init(); err != nil {
		logger.Fatal("failed init rabbitMQ", zap.Error(err))
	}

	// sweeper
	sweeper := services.NewSweeper(linkRegistry, blobStore, rbMQ, logger, mCounter, cleanupInterval)

	return &App{
		logger:   logger,
		cfg:      cfg,
		registry: linkRegistry,
		blob:     blobStore,
		httpSrv:  httpSrv,
		router:   r,
		mCounter: mCounter,
		mq:       rbMQ,
		sweeper:  sweeper,
		defaults: services.LinkDefaults{MaxDownloads: maxDownloads, TTL: ttl},
	}, nil
}

func (a *App) Close() {
	if a.mq.GetConn() != nil {
		a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.cfg.App.Host+":"+a.cfg.App.Port))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})

	g.Go(func() error {
		a.sweeper.Run(ctx)
		return nil
	})

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// services
	linkService := services.NewLinkService(a.registry, a.blob, a.mq, a.logger, a.mCounter, a.defaults)

	// controllers
	rest.NewLinkController(a.router, linkService, a.logger, a.cfg.App.UploadSecret)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }
