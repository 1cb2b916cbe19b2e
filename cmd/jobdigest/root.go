package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/app"
	"github.com/amishk599/jobdigest/internal/config"
)

var (
	cfgPath string
	envFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobdigest",
	Short: "QA job digests for a Telegram channel",
	Long: "jobdigest crawls job boards, keeps the QA listings, posts them to a " +
		"channel in page-sized digests and deletes each digest after the retention window.",
	// Without a subcommand jobdigest performs one run, so cron jobs and
	// container entrypoints can invoke the bare binary.
	RunE:         runRun,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: "+config.EnvConfigPath+" env var or ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	addRunFlags(rootCmd)
}

// loadConfig resolves the config path and parses it.
func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(cfgPath))
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// openRuntime loads the config and resolves the channels of the enabled
// sources, or of only the one called source. Failures are logged and exit.
func openRuntime(logger *slog.Logger, source string, dryRun bool) *app.Runtime {
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	sources, err := cfg.EnabledSources(source)
	if err != nil {
		logger.Error("failed to select sources", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(sources),
		"notification", cfg.Notification.Type,
		"retention", cfg.Retention.String(),
		"inter_page_delay", cfg.InterPageDelay.String(),
		"jobs_per_message", cfg.JobsPerMessage,
	)

	rt, err := app.Open(cfg, sources, app.Options{DryRun: dryRun, EnvFile: envFile}, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	return rt
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
