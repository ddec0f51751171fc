package cmd

import (
	"fmt"
	"time"

	"expertmeet/config"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/spf13/cobra"
)

func newTokenCommand() *cobra.Command {
	var (
		subject string
		role    string
		name    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.IsProduction() {
				return fmt.Errorf("token: refusing to mint tokens in production")
			}
			if r := models.Role(role); r != models.RoleClient && r != models.RoleProvider {
				return fmt.Errorf("token: role must be %q or %q", models.RoleClient, models.RoleProvider)
			}
			token, err := utils.GenerateToken(subject, role, name, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "", "User id (token subject)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleClient), "client or provider")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
