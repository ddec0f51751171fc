package cmd

import (
	"fmt"
	"os"

	"expertmeet/config"
	"expertmeet/utils"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "expertmeet",
	Short: "ExpertMeet consultation marketplace backend.",
	Long: `ExpertMeet connects clients with lawyers, accountants and consultants for
bookable video or in-person consultations. This binary serves the HTTP API,
runs the background worker and can join a call room as a headless participant.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig(cfgFile)
		utils.InitializeLogger()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		utils.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands. Empty means config.yaml
	// in the working directory or ./config, if present.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newWorkerCommand())
	rootCmd.AddCommand(newSeedPlansCommand())
	rootCmd.AddCommand(newTokenCommand())
	rootCmd.AddCommand(newJoinCommand())
}
