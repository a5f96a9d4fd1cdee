package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corner-25/test-umc-sub000/config"
	"github.com/corner-25/test-umc-sub000/core/monitoring"
	"github.com/corner-25/test-umc-sub000/infra/logger"
	inframon "github.com/corner-25/test-umc-sub000/infra/monitoring"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "umc-fleet",
	Short:         "UMC hospital fleet reporting",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logger.SetLevel(cfg.Logging.Level); err != nil {
			return err
		}
		mon, err := inframon.NewSentryMonitor(cfg.Sentry)
		if err != nil {
			return fmt.Errorf("sentry: %w", err)
		}
		monitoring.Init(mon)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		monitoring.Flush(2 * time.Second)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json); UMC_ variables override it")
}

// Execute runs the CLI.
func Execute() error {
	defer monitoring.Recover()
	return rootCmd.Execute()
}
