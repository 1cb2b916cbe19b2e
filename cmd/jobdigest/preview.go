package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobdigest/internal/app"
	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/filter"
	"github.com/amishk599/jobdigest/internal/preview"
)

var previewNoDelay bool

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview digests interactively (TUI)",
	Long:  "Shows the source picker, crawls the chosen source and pages through the digests it would publish. Nothing is sent.",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().BoolVar(&previewNoDelay, "no-delay", false, "skip the pause between pages")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	sources, err := cfg.EnabledSources("")
	if err != nil || len(sources) == 0 {
		fmt.Println("No enabled sources in config.")
		return nil
	}

	ctx, stop := signalContext()
	defer stop()

	for {
		choice, err := preview.RunSourcePicker(sources)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		sc := sources[choice]

		result, err := crawlSource(ctx, cfg, sc)
		if err != nil {
			fmt.Printf("Error crawling %s: %v\n", sc.Name, err)
			continue
		}

		wantQuit, err := preview.RunViewer(sc.Name, result)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: back to the picker
	}
}

func crawlSource(ctx context.Context, cfg *config.Config, sc config.SourceConfig) (preview.Result, error) {
	src, renderer, err := app.NewSource(sc, cfg, app.BrowserLauncher(cfg))
	if err != nil {
		return preview.Result{}, err
	}

	crawler := &preview.Crawler{
		MaxPages:  sc.MaxPages,
		Delay:     cfg.InterPageDelay,
		BatchSize: cfg.JobsPerMessage,
		Matcher:   filter.NewKeywordFilter(sc.Keywords),
		Renderer:  renderer,
	}
	if previewNoDelay {
		crawler.Delay = 0
	}

	return preview.RunLoader(ctx, sc.Name, func(ctx context.Context) preview.Result {
		return crawler.Crawl(ctx, src)
	})
}
