package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/spf13/cobra"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/conf"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/data"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/ingest"
	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
	"github.com/iWorld-y/news_dashboard/app/dashboard/pkg/logger"
)

var confPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "newsctl",
		Short:        "Manage the news dashboard database",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&confPath, "conf", "app/dashboard/configs/config.yaml", "config path")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(loadDemoCmd())
	rootCmd.AddCommand(touchDatesCmd())
	rootCmd.AddCommand(fixImagesCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type env struct {
	bc     *conf.Bootstrap
	store  repo.AdminBackend
	logger log.Logger
}

func setup() (*env, error) {
	bc, err := conf.Load(confPath)
	if err != nil {
		return nil, err
	}

	level, logFile := "info", ""
	if bc.Log != nil {
		level, logFile = bc.Log.Level, bc.Log.File
	}
	lr, err := logger.New(level, logFile)
	if err != nil {
		return nil, err
	}
	l := log.With(logger.NewKratosLogger(lr), logger.CallerKey, log.DefaultCaller)

	store, err := data.NewAdminBackend(bc.Data, l)
	if err != nil {
		return nil, err
	}
	return &env{bc: bc, store: store, logger: l}, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the dashboard tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			if err := e.store.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Print article counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			window := e.bc.Dashboard.WindowDuration()
			counts, err := ingest.Check(cmd.Context(), e.store, time.Now(), window)
			if err != nil {
				return err
			}
			fmt.Printf("Total articles in database: %d\n", counts.Total)
			fmt.Printf("Articles from the last %s: %d\n", window, counts.Recent)
			return nil
		},
	}
}

func loadDemoCmd() *cobra.Command {
	var (
		fetchMissing bool
		fetchTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "load-demo [file.json]",
		Short: "Insert demo articles, skipping URLs that already exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			articles, err := ingest.ReadDemo(f)
			if err != nil {
				return err
			}

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			var fetcher ingest.Fetcher
			if fetchMissing {
				fetcher = ingest.ReadabilityFetcher{Timeout: fetchTimeout}
			}
			stats, err := ingest.NewImporter(e.store, fetcher, e.logger).Import(cmd.Context(), articles)
			if err != nil {
				return err
			}

			fmt.Printf("Successfully saved: %d\n", stats.Saved)
			fmt.Printf("Enrichments saved: %d\n", stats.Enrichments)
			fmt.Printf("Skipped (duplicates): %d\n", stats.Skipped)
			fmt.Printf("Errors: %d\n", stats.Errors)
			return nil
		},
	}

	cmd.Flags().BoolVar(&fetchMissing, "fetch-missing", false, "extract a summary from the article page when it is empty")
	cmd.Flags().DurationVar(&fetchTimeout, "fetch-timeout", 30*time.Second, "timeout for each page fetch")
	return cmd
}

func touchDatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "touch-dates",
		Short: "Move every article into the last hours, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			n, err := ingest.TouchDates(cmd.Context(), e.store, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Updated %d articles\n", n)
			return nil
		},
	}
}

func fixImagesCmd() *cobra.Command {
	var (
		missingOnly bool
		noDefaults  bool
		defaults    []string
		interval    time.Duration
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fix-images",
		Short: "Replace broken or missing images with ones extracted from the article page",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			defer e.store.Close()

			opts := ingest.ImageOptions{
				MissingOnly: missingOnly,
				Defaults:    defaults,
				Interval:    interval,
			}
			if noDefaults {
				opts.Defaults = nil
			}
			fixer := ingest.NewImageFixer(e.store, &http.Client{Timeout: timeout}, e.logger)
			stats, err := fixer.Fix(cmd.Context(), opts)
			if err != nil {
				return err
			}

			fmt.Printf("Checked: %d\n", stats.Checked)
			fmt.Printf("Broken or missing: %d\n", stats.Broken)
			fmt.Printf("Extracted from page: %d\n", stats.Extracted)
			fmt.Printf("Set to default: %d\n", stats.Defaulted)
			fmt.Printf("Errors: %d\n", stats.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&missingOnly, "missing-only", false, "only fill empty images, do not check existing links")
	cmd.Flags().BoolVar(&noDefaults, "no-defaults", false, "leave the image unchanged when none can be extracted")
	cmd.Flags().StringSliceVar(&defaults, "default-image", ingest.DefaultImages, "placeholder images, used in rotation")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "minimum delay between page fetches")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout for each request")
	return cmd
}
