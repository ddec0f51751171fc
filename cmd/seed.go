package cmd

import (
	"context"
	"fmt"
	"time"

	"expertmeet/database"
	planRepo "expertmeet/database/repository/plan"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedPlansCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-plans",
		Short: "Create or update the subscription plan reference data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := utils.GetLogger()
			if err := database.InitDB(ctx); err != nil {
				return err
			}
			defer func() {
				dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = database.Disconnect(dctx)
			}()

			plans := planRepo.NewMongoPlanRepo()
			if err := plans.EnsureIndexes(ctx); err != nil {
				return err
			}
			for _, p := range models.DefaultPlans() {
				if err := plans.Upsert(ctx, p); err != nil {
					return fmt.Errorf("seed-plans: %s: %w", p.Name, err)
				}
				logger.Info("plan seeded", zap.String("name", p.Name), zap.Int("monthlyAppointments", p.MonthlyAppointments))
			}
			return nil
		},
	}
}
