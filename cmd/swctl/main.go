package main

import (
	"fmt"
	"os"

	"github.com/shenikar/securewatch_sims/internal/cache"
	"github.com/shenikar/securewatch_sims/internal/config"
	"github.com/shenikar/securewatch_sims/internal/gateway"
	"github.com/shenikar/securewatch_sims/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version = "dev"

	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
	db      *cache.Cache
	api     *gateway.Client

	// incidents - общий Store всех подкоманд
	incidents *store.Store
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "swctl",
	Short: "SecureWatch - incident reporting and tracking client",
	Long: `swctl reports, tracks and manages security incidents against the
SecureWatch API. All reads keep working offline from the local cache, and
public reports are accepted even when the server is unreachable.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.WarnLevel)
		}

		var err error
		cfg, err = config.LoadClientConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err = cache.Open(cfg.CachePath, logger)
		if err != nil {
			return fmt.Errorf("failed to open local cache: %w", err)
		}

		api = gateway.NewClient(cfg, logger)
		incidents = store.New(api, db, cfg, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			if err := db.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close local cache")
			}
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
}
