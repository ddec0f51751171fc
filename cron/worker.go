package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"expertmeet/config"
	"expertmeet/models"
	"expertmeet/services/notification"
	"expertmeet/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Pusher delivers a reminder to one profile.
type Pusher interface {
	SendPushNotification(ctx context.Context, profileID, title, body string, data map[string]string) error
}

// Completer closes out appointments whose date has passed.
type Completer interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

// RedisOpt is the asynq connection shared by the API (enqueue) and the worker.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// Worker runs reminder delivery and the periodic completion sweep.
type Worker struct {
	Server    *asynq.Server
	Scheduler *asynq.Scheduler
	Mux       *asynq.ServeMux
	Logger    *zap.Logger
	redisOpt  asynq.RedisClientOpt
}

func NewWorker(pusher Pusher, completer Completer, logger *zap.Logger) (*Worker, error) {
	if pusher == nil || completer == nil {
		return nil, fmt.Errorf("worker initialization error: pusher or completer is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opt := RedisOpt()

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			tasks.QueueDefault: 1,
		},
		Logger: logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSendReminder, HandleReminder(pusher, logger))
	mux.HandleFunc(tasks.TypeCompleteElapsed, HandleCompleteElapsed(completer, time.Now, logger))

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
		Logger:   logger.Sugar(),
	})

	return &Worker{Server: srv, Scheduler: scheduler, Mux: mux, Logger: logger, redisOpt: opt}, nil
}

// Run starts the server and scheduler and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	spec := config.AppConfig.CompletionSweepSpec
	if spec == "" {
		spec = "@every 15m"
	}
	entryID, err := w.Scheduler.Register(spec, tasks.NewCompleteElapsedTask(), asynq.Queue(tasks.QueueDefault))
	if err != nil {
		return fmt.Errorf("failed to register completion sweep: %w", err)
	}
	w.Logger.Info("completion sweep registered", zap.String("entryId", entryID), zap.String("spec", spec))

	if err := w.Server.Start(w.Mux); err != nil {
		return fmt.Errorf("failed to start worker: %w", err)
	}
	if err := w.Scheduler.Start(); err != nil {
		w.Server.Shutdown()
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	go monitorRedisConnection(ctx, w.redisOpt, w.Logger)

	w.Logger.Info("worker started", zap.String("redis", w.redisOpt.Addr), zap.Int("db", w.redisOpt.DB))
	<-ctx.Done()

	w.Logger.Info("worker shutting down")
	w.Scheduler.Shutdown()
	w.Server.Shutdown()
	return nil
}

// HandleReminder sends the push described by a reminder payload. Failures are
// not retried; a missed reminder is logged and dropped.
func HandleReminder(pusher Pusher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("invalid reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.Target != models.RoleClient && p.Target != models.RoleProvider {
			logger.Warn("unknown reminder target", zap.String("target", string(p.Target)))
			return nil
		}

		data := map[string]string{
			"type":          "reminder",
			"appointmentId": p.AppointmentID,
			"fireDate":      p.FireDate,
		}
		err := pusher.SendPushNotification(ctx, p.ID, p.Title, p.Body, data)
		switch {
		case err == nil:
			logger.Info("reminder sent", zap.String("appointmentId", p.AppointmentID), zap.String("target", string(p.Target)))
			return nil
		case errors.Is(err, notification.ErrNoPushTarget):
			logger.Debug("reminder skipped, no device token", zap.String("profileId", p.ID))
			return nil
		default:
			return fmt.Errorf("reminder %s: %v: %w", p.AppointmentID, err, asynq.SkipRetry)
		}
	}
}

// HandleCompleteElapsed moves past confirmed appointments to completed.
func HandleCompleteElapsed(completer Completer, now func() time.Time, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := completer.CompleteElapsed(ctx, now())
		if err != nil {
			return fmt.Errorf("completion sweep: %w", err)
		}
		if n > 0 {
			logger.Info("appointments completed", zap.Int64("count", n))
		}
		return nil
	}
}

// monitorRedisConnection pings the queue database periodically to surface outages.
func monitorRedisConnection(ctx context.Context, opt asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     opt.Addr,
		Password: opt.Password,
		DB:       opt.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("queue redis connection lost", zap.Error(err))
			}
		}
	}
}
