// Command worldrag serves conversational question answering over World Bank
// indicators and the GEM report.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xiaot623/worldrag/internal/config"
	"github.com/xiaot623/worldrag/internal/logger"
)

type rootFlags struct {
	port         int
	skipDownload bool
	logLevel     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("worldrag failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	serveCmd := newServeCmd(flags)
	rootCmd := &cobra.Command{
		Use:           "worldrag",
		Short:         "Chat with World Bank indicators and the GEM report",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&flags.port, "port", 0, "HTTP port (overrides HTTP_PORT)")
	pf.BoolVar(&flags.skipDownload, "skip-download", false, "use dataset files already on disk")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd, newProvisionCmd(flags), newChatCmd())
	return rootCmd
}

// loadConfig reads the environment, applies flag overrides and configures
// logging.
func loadConfig(flags *rootFlags) *config.Config {
	cfg := config.Load()
	if flags.port != 0 {
		cfg.HTTPPort = flags.port
	}
	if flags.skipDownload {
		cfg.SkipDownload = true
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger.Configure(cfg.LogLevel, cfg.Environment == config.EnvDevelopment)
	log.Debug().Str("environment", cfg.Environment).Str("mode", cfg.Mode).Msg("configuration loaded")
	return cfg
}
