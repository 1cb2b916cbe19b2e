package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduling daemon",
	Long: "Runs every enabled source right away and then on the configured cron " +
		"schedule. A source still busy from its previous run is skipped. Blocks " +
		"until SIGINT/SIGTERM, then waits for in-flight runs to clean up.",
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	rt := openRuntime(logger, "", false)
	defer rt.Close()

	pollers, err := rt.Pollers()
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}

	ctx, stop := signalContext()
	defer stop()

	sched := scheduler.NewScheduler(pollers, rt.Config.Schedule, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
