package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	cacheadapter "github.com/viralforge/attribution-engine/internal/adapters/cache"
	eventadapter "github.com/viralforge/attribution-engine/internal/adapters/events"
	grpcadapter "github.com/viralforge/attribution-engine/internal/adapters/grpc"
	httpadapter "github.com/viralforge/attribution-engine/internal/adapters/http"
	"github.com/viralforge/attribution-engine/internal/adapters/postgres"
	"github.com/viralforge/attribution-engine/internal/application"
	"github.com/viralforge/attribution-engine/internal/domain"
	"github.com/viralforge/attribution-engine/internal/engine"
	"github.com/viralforge/attribution-engine/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	clickStore *engine.ClickStore
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping attribution engine", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)

	clickStore := engine.NewClickStore(engine.ClickStoreConfig{
		Window:           cfg.AttributionWindow,
		MaxClicksPerUser: cfg.MaxClicksPerUser,
		SweepInterval:    cfg.SweepInterval,
	})
	model := engine.NewAdaptiveModel(engine.ModelConfig{
		MinTrainingSamples: cfg.MinTrainingSamples,
		RetrainEvery:       cfg.RetrainEvery,
		LearningRate:       cfg.LearningRate,
		BatchIterations:    cfg.BatchIterations,
		MaxSamples:         cfg.MaxSamples,
	})

	// Resume from the last published retrain instead of expert defaults.
	if snapshot, err := repos.Snapshots.Latest(ctx); err == nil {
		model.Restore(snapshot)
		logger.Info("model snapshot restored",
			"module", "bootstrap",
			"operation", "restore_model",
			"outcome", "success",
			"version", snapshot.Version,
			"training_count", snapshot.TrainingCount,
		)
	} else if !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("model snapshot restore failed",
			"module", "bootstrap",
			"operation", "restore_model",
			"outcome", "degraded",
			"error", err.Error(),
		)
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:       cfg.ServiceID,
			AttributionWindow: cfg.AttributionWindow,
			MinConfidence:     cfg.MinConfidence,
			TierTimeout:       cfg.TierTimeout,
		},
		ClickStore:   clickStore,
		Model:        model,
		Clicks:       repos.Clicks,
		Sales:        repos.Sales,
		Attributions: repos.Attributions,
		Links:        repos.Links,
		Content:      repos.Content,
		GroundTruth:  repos.GroundTruth,
		Snapshots:    repos.Snapshots,
		Outbox:       repos.Outbox,
		Cache:        cacheadapter.NewRedisClickCache(redisClient),
		Logger:       logger,
	})

	handler := httpadapter.NewHandler(svc)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewAttributionInternalServer(svc))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("listen gRPC: %w", err)
	}

	var publisher ports.EventPublisher
	var closePublisher func() error
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil)
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			_ = lis.Close()
			return nil, fmt.Errorf("init kafka publisher: %w", err)
		}
		publisher = kafkaPublisher
		closePublisher = kafkaPublisher.Close
	} else {
		logger.Warn("no kafka brokers configured, events are logged only")
		publisher = eventadapter.NewLoggingPublisher(logger)
	}

	outbox := eventadapter.NewOutboxWorker(
		logger,
		repos.Outbox,
		publisher,
		cfg.OutboxPollInterval,
		cfg.OutboxBatchSize,
	)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		clickStore: clickStore,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			if closePublisher != nil {
				_ = closePublisher()
			}
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

// Run starts the HTTP API, the gRPC introspection server, the outbox drainer
// and the click-store sweeper, and blocks until a shutdown signal or a server
// failure.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	go r.clickStore.Run(workerCtx, r.logger)
	go func() {
		if err := r.outbox.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("outbox worker stopped", "error", err)
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", r.grpcLis.Addr().String())
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	cancelWorkers()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}
