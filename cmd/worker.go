package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"expertmeet/config"
	"expertmeet/cron"
	"expertmeet/database"
	"expertmeet/database/repository"
	"expertmeet/services/booking"
	"expertmeet/services/callroom"
	"expertmeet/services/lead"
	"expertmeet/services/notification"
	"expertmeet/services/usage"
	"expertmeet/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background worker (reminders and the completion sweep)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWorker(ctx)
		},
	}
}

func runWorker(ctx context.Context) error {
	logger := utils.GetLogger()

	if err := database.InitDB(ctx); err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.Disconnect(dctx)
	}()
	repos := repository.NewMongoSet()

	fcm, err := utils.FirebaseInit(ctx)
	if err != nil {
		return fmt.Errorf("worker: reminders need FCM: %w", err)
	}
	notifier, err := notification.NewDefaultNotificationService(repos.Profiles, fcm, logger.Named("notification"))
	if err != nil {
		return err
	}

	usageSvc, err := usage.NewDefaultUsageService(repos.Usage, repos.Plans, config.AppConfig.FreePlanName, logger.Named("usage"))
	if err != nil {
		return err
	}
	leads, err := lead.NewDefaultLeadService(repos.Leads, repos.Appointments, repos.Messages, logger.Named("lead"))
	if err != nil {
		return err
	}
	engine, err := booking.NewDefaultBookingEngine(repos.Profiles, repos.Appointments, usageSvc, callroom.UUIDProvisioner{}, leads, logger.Named("booking"))
	if err != nil {
		return err
	}

	worker, err := cron.NewWorker(notifier, engine, logger.Named("worker"))
	if err != nil {
		return err
	}
	if err := worker.Run(ctx); err != nil {
		logger.Error("worker: stopped with error", zap.Error(err))
		return err
	}
	return nil
}
