package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"expertmeet/config"
	"expertmeet/cron"
	"expertmeet/database"
	"expertmeet/database/repository"
	"expertmeet/models"
	"expertmeet/services/availability"
	"expertmeet/services/signaling"
	"expertmeet/services/storage"
	"expertmeet/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCommand() *cobra.Command {
	var (
		memory          bool
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, memory, shutdownTimeout)
		},
	}

	cmd.Flags().BoolVar(&memory, "memory", false, "Run with in-process storage and signaling (no MongoDB or Redis)")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Maximum time to wait for graceful shutdown")
	return cmd
}

func runServe(ctx context.Context, memory bool, shutdownTimeout time.Duration) error {
	logger := utils.GetLogger()

	var (
		repos   *repository.Set
		infra   Infra
		cleanup []func()
	)
	if memory {
		logger.Warn("serve: running with in-process storage; data is lost on exit")
		repos = repository.NewMemorySet(models.DefaultPlans()...)
		hub := signaling.NewMemoryHub()
		infra = Infra{Channel: hub, Presence: hub, StripeKey: config.AppConfig.StripeKey}
	} else {
		var err error
		repos, infra, cleanup, err = connectInfra(ctx, logger)
		if err != nil {
			return err
		}
	}
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	app, err := NewApp(repos, infra, logger)
	if err != nil {
		return err
	}
	router := NewRouter(app, logger)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serve: starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("serve: server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("serve: server forced to shutdown", zap.Error(err))
	}
	app.Booking.Drain()
	logger.Info("serve: server stopped gracefully")
	return nil
}

// connectInfra opens MongoDB, Redis, FCM, Cloudinary and the task queue. FCM
// and Cloudinary are optional and only log when unavailable.
func connectInfra(ctx context.Context, logger *zap.Logger) (*repository.Set, Infra, []func(), error) {
	var cleanup []func()

	if err := database.InitDB(ctx); err != nil {
		return nil, Infra{}, nil, err
	}
	cleanup = append(cleanup, func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.Disconnect(dctx); err != nil {
			logger.Warn("serve: mongo disconnect failed", zap.Error(err))
		}
	})

	repos := repository.NewMongoSet()
	if err := repos.EnsureIndexes(ctx); err != nil {
		return nil, Infra{}, cleanup, err
	}

	utils.InitRedis()
	cacheClient := utils.GetCacheClient()
	signalClient := utils.GetSignalClient()
	utils.StartHealthMonitor(ctx, []*redis.Client{cacheClient, signalClient}, database.MongoClient)

	cacheTTL := time.Duration(config.AppConfig.AvailabilityCacheMins) * time.Minute
	presenceTTL := time.Duration(config.AppConfig.PresenceTTLMinutes) * time.Minute
	infra := Infra{
		RuleCache: availability.NewRedisRuleCache(cacheClient, cacheTTL, logger.Named("availability")),
		Channel:   signaling.NewRedisChannel(signalClient, logger.Named("signal")),
		Presence:  signaling.NewRedisPresence(signalClient, presenceTTL, logger.Named("presence")),
		StripeKey: config.AppConfig.StripeKey,
	}

	queue := asynq.NewClient(cron.RedisOpt())
	cleanup = append(cleanup, func() { _ = queue.Close() })
	infra.Queue = queue

	if fcm, err := utils.FirebaseInit(ctx); err != nil {
		logger.Warn("serve: push notifications disabled", zap.Error(err))
	} else {
		infra.FCM = fcm
	}

	if cld, err := utils.Cloudinary(); err != nil {
		logger.Warn("serve: document uploads disabled", zap.Error(err))
	} else {
		infra.Blobs = storage.NewCloudinaryStore(cld)
	}
	return repos, infra, cleanup, nil
}
