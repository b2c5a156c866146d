// Command tmsctl manages the TMS database schema and issues development
// access tokens.
package main

import (
	"fmt"
	"os"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "tmsctl",
	Short: "TMS administration tool",
	Long: `tmsctl applies the database schema and issues access tokens for local
development. Configuration is read from config.toml, .env and TMS_* environment
variables, the same way the server reads it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newTokenCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and a console logger for a command run
func setup() (*config.Config, *zap.Logger, error) {
	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
