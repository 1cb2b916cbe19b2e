package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/scheduler"
)

var (
	sequential bool
	onlySource string
	dryRun     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every enabled source once",
	Long: "Crawls each enabled source, publishes its digests and waits until every " +
		"digest has been deleted after the retention window. SIGINT/SIGTERM stops " +
		"crawling and deletes pending digests right away.",
	RunE: runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&sequential, "sequential", false, "run sources one after another instead of concurrently")
	cmd.Flags().StringVar(&onlySource, "source", "", "run only the named source")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log digests instead of sending them")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	rt := openRuntime(logger, onlySource, dryRun)
	defer rt.Close()

	pollers, err := rt.Pollers()
	if err != nil {
		logger.Error("failed to build sources", "error", err)
		os.Exit(1)
	}

	ctx, stop := signalContext()
	defer stop()

	reports := scheduler.RunOnce(ctx, pollers, sequential, logger)
	for _, r := range reports {
		if r.RunID == "" {
			continue
		}
		logger.Info("source summary",
			"source", r.Source,
			"run_id", r.RunID,
			"pages", r.Pages,
			"jobs", r.Records,
			"digests", r.Digests,
			"published", r.Published,
			"publish_failed", r.PublishFailed,
			"deleted", r.Expiry.Deleted,
			"delete_failed", r.Expiry.Failed,
			"stop", string(r.Stop),
		)
	}

	logger.Info("run complete")
	return nil
}
