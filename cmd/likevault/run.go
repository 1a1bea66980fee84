package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"likevault/pkg/archive"
	"likevault/pkg/config"
	"likevault/pkg/feed"
	"likevault/pkg/ingest"
	"likevault/pkg/ledger"
	"likevault/pkg/logger"
	"likevault/pkg/media"
	"likevault/pkg/ratelimit"
	"likevault/pkg/retry"
	"likevault/pkg/secrets"
)

var (
	// Run command flags
	runUserID      string
	runOutputDir   string
	runLedgerPath  string
	runTokenSecret string
	runResetCursor bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one archiving pass over the liked feed",
	Long: `Run a single batch pass: list the user's liked items page by page,
download photo attachments that are not yet archived, and stop once
the feed is exhausted or the run has caught up with previous history.

The bearer token is resolved from the secret store at start; use
'likevault token set' to provision it. The run exits non-zero when it
aborts; the cursor for the page in progress is persisted first, so
the next run resumes at the same page.`,
	Example: `  # Archive with settings from config/env
  likevault run

  # Archive a specific user's likes into a custom directory
  likevault run --user 783214 --output /data/likes

  # Ignore the persisted cursor and rewalk from the feed head
  likevault run --reset-cursor`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchive(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runUserID, "user", "u", "", "feed user id whose likes are archived")
	runCmd.Flags().StringVarP(&runOutputDir, "output", "o", "", "output root directory for the archive")
	runCmd.Flags().StringVar(&runLedgerPath, "ledger", "", "path to the SQLite ledger database")
	runCmd.Flags().StringVar(&runTokenSecret, "token-secret", "", "name of the secret holding the bearer token")
	runCmd.Flags().BoolVar(&runResetCursor, "reset-cursor", false, "ignore the persisted cursor and start from the feed head")
}

func runArchive(ctx context.Context) error {
	flags := make(map[string]interface{})
	if runUserID != "" {
		flags["user"] = runUserID
	}
	if runOutputDir != "" {
		flags["output"] = runOutputDir
	}
	if runLedgerPath != "" {
		flags["ledger"] = runLedgerPath
	}
	if runTokenSecret != "" {
		flags["token-secret"] = runTokenSecret
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	// Resolve the bearer credential before touching anything durable
	secretManager, err := secrets.NewManager()
	if err != nil {
		return fmt.Errorf("failed to open secret store: %w", err)
	}
	bearerToken, err := secretManager.Get(cfg.Feed.TokenSecret)
	if err != nil {
		return fmt.Errorf("failed to resolve bearer token: %w", err)
	}

	metadataPolicy := retry.NewMetadataPolicy(
		cfg.Retry.MetadataMaxAttempts,
		cfg.Retry.MetadataServerDelay,
		cfg.Retry.MetadataRateLimitDelay,
		log,
	)
	downloadPolicy := retry.NewDownloadPolicy(
		cfg.Retry.DownloadMaxAttempts,
		cfg.Retry.DownloadServerBaseDelay,
		cfg.Retry.DownloadRateLimitBaseDelay,
		cfg.Retry.DownloadRateLimitIncrement,
		log,
	)

	client := feed.NewClient(cfg.Feed.BaseURL, bearerToken, cfg.Feed.Timeout, metadataPolicy, log)
	fetcher := media.NewFetcher(cfg.Download.Timeout, downloadPolicy, cfg.Download.RewriteLargePNG, log)

	store, err := ledger.Open(ctx, cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer store.Close()

	sink, err := archive.NewSink(cfg.Output.BaseDirectory)
	if err != nil {
		return fmt.Errorf("failed to open archive sink: %w", err)
	}

	loop := ingest.New(
		client,
		fetcher,
		store,
		sink,
		ratelimit.NewFixedDelay(cfg.Download.PaceDelay),
		ingest.Options{
			UserID:      cfg.Feed.UserID,
			ResetCursor: runResetCursor,
			Location:    cfg.Location(),
		},
		log,
	)

	report, err := loop.Run(ctx)
	if err != nil {
		log.ErrorWithFields("run failed", map[string]interface{}{
			"last_cursor": report.LastCursor,
			"downloaded":  report.Downloaded,
			"error":       err.Error(),
		})
		return fmt.Errorf("ingestion aborted: %w", err)
	}

	log.InfoWithFields("run finished", map[string]interface{}{
		"stop_reason":      string(report.StopReason),
		"pages":            report.Pages,
		"items":            report.ItemsSeen,
		"downloaded":       report.Downloaded,
		"skipped_existing": report.SkippedExisting,
		"skipped_gone":     report.SkippedGone,
	})

	return nil
}
