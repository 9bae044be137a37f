package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"dealhunt/internal/config"
	"dealhunt/internal/domain/service/hunt"
	"dealhunt/internal/domain/service/quota"
	"dealhunt/internal/infrastructure/blob"
	"dealhunt/internal/infrastructure/notifier"
	"dealhunt/internal/infrastructure/persistence"
	"dealhunt/internal/infrastructure/planner"
	"dealhunt/internal/observability"
	"dealhunt/internal/server"
	"dealhunt/internal/worker"
	"dealhunt/pkg/application/connectors"
	"dealhunt/pkg/application/modules"
	"dealhunt/pkg/contextx"
	"dealhunt/pkg/logx"
	"dealhunt/pkg/middlewarex"
)

const (
	appName = "dealhunt"

	httpServerReadHeaderTimeout = 5 * time.Second
)

func Run(ctx context.Context, version string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{ //nolint:exhaustruct
		Level: cfg.Logging.Level,
	}))
	slog.SetDefault(logger)
	ctx = contextx.WithLogger(ctx, logger)

	loc, err := time.LoadLocation(cfg.Quota.Timezone)
	if err != nil {
		return fmt.Errorf("time.LoadLocation(%q): %w", cfg.Quota.Timezone, err)
	}

	store, closeStore, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("newBlobStore: %w", err)
	}
	defer closeStore(ctx)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer, appName)

	resultStore := persistence.NewResultStore(store, cfg.Storage.MemoryObject).
		WithSaveFailureHook(metrics.SnapshotSaveFailures.Inc)

	if err := resultStore.Load(ctx); err != nil {
		return fmt.Errorf("resultStore.Load: %w", err)
	}

	logger.Info("memory snapshot loaded", slog.Int("opportunities", resultStore.Len()))

	gate := quota.NewGate(store, cfg.Quota.DailyLimit, loc)

	_, remaining := gate.CanRun(ctx)
	metrics.QuotaRemaining.Set(float64(remaining))

	coordinator := hunt.NewCoordinator(
		planner.NewHTTPClient(
			cfg.Planner.BaseURL,
			cfg.Planner.Token,
			cfg.Planner.RequestTimeout,
			cfg.Logging.LogFieldMaxLen,
		),
		resultStore,
		loc,
	)

	dispatcher := worker.NewDispatcher(coordinator, gate, metrics, cfg.Hunt.RunTimeout)

	opportunityServer := server.NewOpportunityServer(resultStore, nil)

	if cfg.Bot.Enabled {
		alertBot, err := notifier.NewTelegramBot(cfg.Bot.Token, cfg.Bot.ChatID)
		if err != nil {
			return fmt.Errorf("notifier.NewTelegramBot: %w", err)
		}

		alertBot.WithSentHook(metrics.AlertsSent.Inc)

		if err := alertBot.SendText(ctx, "dealhunt started"); err != nil {
			logger.Error("bot startup check failed", logx.Error(err))
		}

		opportunityServer = server.NewOpportunityServer(resultStore, alertBot)
	}

	srv := server.NewServer(
		server.NewRunServer(dispatcher, gate),
		opportunityServer,
		server.NewQuotaServer(gate),
	)

	httpServer := &http.Server{ //nolint:exhaustruct
		Addr:              cfg.Server.ListenAddress,
		Handler:           newRouter(srv, cfg.Logging.LogFieldMaxLen),
		ReadHeaderTimeout: httpServerReadHeaderTimeout,
	}

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(ctx, g, httpServer)
	modules.MetricServer{ListenAddress: cfg.Server.MetricListenAddress}.Run(ctx, g)
	modules.ProbeServer{
		Name:          appName,
		Version:       version,
		ListenAddress: cfg.Server.ProbeListenAddress,
	}.Run(ctx, g)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}

func newRouter(srv server.Server, logFieldMaxLen int) chi.Router {
	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, logFieldMaxLen),
		middlewarex.ResponseLogging(masker, logFieldMaxLen),
	)

	srv.RegisterRoutes(router)

	return router
}

func newBlobStore(
	ctx context.Context,
	cfg config.Config,
) (blob.Store, func(context.Context), error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendFile:
		return blob.NewFileStore(cfg.Storage.Dir), func(context.Context) {}, nil

	case config.StorageBackendRedis:
		r := &connectors.Redis{ //nolint:exhaustruct
			Address:            cfg.Redis.Address,
			Username:           cfg.Redis.Username,
			Password:           cfg.Redis.Password,
			DatabaseNumber:     cfg.Redis.DatabaseNumber,
			PoolSize:           cfg.Redis.PoolSize,
			MinIdleConnections: cfg.Redis.MinIdleConnections,
			MaxIdleConnections: cfg.Redis.MaxIdleConnections,
		}

		return blob.NewRedisStore(r.Client(ctx), cfg.Storage.Bucket), r.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
