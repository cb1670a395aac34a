package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shorts-studio/internal/models"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "shorts-studio",
	Short:        "Find viral shorts and plan new ones",
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the scheduled trend digest",
	RunE:  runServe,
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Find viral videos for a keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Scan the seed keywords for trending shorts",
	RunE:  runTrends,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate a shorts plan for one video",
	RunE:  runAnalyze,
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Run the trend digest on its schedule",
	RunE:  runDigest,
}

var (
	minSubsFlag    int64
	maxSubsFlag    int64
	noScheduleFlag bool
	onceFlag       bool
	analyzeReq     models.AnalyzeRequest
)

func init() {
	searchCmd.Flags().Int64Var(&minSubsFlag, "min-subs", -1, "Minimum subscriber count (default from config)")
	searchCmd.Flags().Int64Var(&maxSubsFlag, "max-subs", -1, "Maximum subscriber count (default from config)")

	serveCmd.Flags().BoolVar(&noScheduleFlag, "no-schedule", false, "Serve the API without the scheduled digest")

	analyzeCmd.Flags().StringVar(&analyzeReq.VideoID, "video-id", "", "Video ID")
	analyzeCmd.Flags().StringVar(&analyzeReq.Title, "title", "", "Video title")
	analyzeCmd.Flags().StringVar(&analyzeReq.Transcript, "transcript", "", "Transcript text (optional)")
	analyzeCmd.Flags().StringVar(&analyzeReq.Keyword, "keyword", "", "Attach the plan to this cached keyword")

	digestCmd.Flags().BoolVar(&onceFlag, "once", false, "Run the digest once and exit")

	rootCmd.AddCommand(serveCmd, searchCmd, trendsCmd, analyzeCmd, digestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config, builds the logger and wires the app. The returned
// context is cancelled on SIGINT or SIGTERM.
func setup(cmd *cobra.Command) (context.Context, *app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	cleanup := func() {
		cancel()
		_ = log.Sync()
	}
	return ctx, a, cleanup, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optional(v int64) *int64 {
	if v < 0 {
		return nil
	}
	return &v
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 2)
	go func() { errCh <- a.newServer().Run(ctx) }()

	running := 1
	if !noScheduleFlag {
		running++
		go func() { errCh <- a.newScheduler().Start(ctx) }()
	}

	var firstErr error
	for ; running > 0; running-- {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
			cleanup()
		}
	}
	return firstErr
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	th := a.finder.SearchThresholds(optional(minSubsFlag), optional(maxSubsFlag))
	result, err := a.finder.Search(ctx, args[0], th)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runTrends(cmd *cobra.Command, _ []string) error {
	ctx, a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := a.finder.Trends(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	ctx, a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := a.analyzer.Analyze(ctx, analyzeReq)
	if err != nil {
		return err
	}
	if analyzeReq.Keyword != "" {
		if err := a.finder.AttachAnalysis(analyzeReq.Keyword, analyzeReq.VideoID, analysis); err != nil {
			a.log.Warn("Could not attach analysis to cached video", logger.Error(err))
		}
	}
	return printJSON(cmd.OutOrStdout(), analysis)
}

func runDigest(cmd *cobra.Command, _ []string) error {
	ctx, a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	s := a.newScheduler()
	if onceFlag {
		if err := a.agent.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize agent: %w", err)
		}
		if err := s.RunOnce(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.monitor.GetStatusSummary())
		return nil
	}

	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler failed: %w", err)
	}
	return nil
}
