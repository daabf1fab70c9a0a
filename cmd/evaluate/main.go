// Package main provides a reference harness around the edge engine: it reads
// normalized JSON record files produced by upstream collaborators, runs the
// evaluation pipeline, and prints the resulting records as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/engine"
	"github.com/yourusername/sharp-line/internal/ingest"
	applogger "github.com/yourusername/sharp-line/internal/logger"
	"github.com/yourusername/sharp-line/internal/metrics"
	"github.com/yourusername/sharp-line/internal/models"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile   string
	eventsFile   string
	quotesFile   string
	outcomesFile string
	bankroll     float64
	windowDays   int

	logger *logrus.Logger
	cfg    *config.Config
	eng    *engine.Engine
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	evaluateCmd.Flags().StringVar(&eventsFile, "events", "events.json", "Path to situational events JSON file")
	evaluateCmd.Flags().StringVar(&quotesFile, "quotes", "quotes.json", "Path to price quotes JSON file")
	evaluateCmd.Flags().Float64Var(&bankroll, "bankroll", 10000, "Bankroll for stake sizing")

	settleCmd.Flags().StringVar(&outcomesFile, "outcomes", "outcomes.json", "Path to outcomes JSON file")
	settleCmd.Flags().StringVar(&eventsFile, "events", "events.json", "Path to situational events JSON file")
	settleCmd.Flags().StringVar(&quotesFile, "quotes", "quotes.json", "Path to price quotes JSON file")
	settleCmd.Flags().Float64Var(&bankroll, "bankroll", 10000, "Bankroll for stake sizing")

	reportCmd.Flags().IntVar(&windowDays, "window-days", 0, "Report window in days back from now (0 = all records)")

	rootCmd.AddCommand(evaluateCmd, settleCmd, reportCmd, versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run the edge & calibration engine over normalized record files",
	Long:  `Evaluate quoted market prices against situationally-adjusted model prices, size positions, and score historical predictions against outcomes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger = applogger.NewLogger(cfg.App.LogLevel)
		eng = engine.New(cfg, logger)

		if cfg.Metrics.Enabled {
			startMetricsServer()
		}
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate edges and print stake recommendations",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := evaluateAll(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(results)
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Record outcomes against prior predictions and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := evaluateAll(cmd.Context()); err != nil {
			return err
		}
		if err := settleOutcomes(); err != nil {
			return err
		}
		return printJSON(eng.Report(models.ReportWindow{}))
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the calibration report for a window",
	RunE: func(cmd *cobra.Command, args []string) error {
		window := models.ReportWindow{}
		if windowDays > 0 {
			window.Start = time.Now().AddDate(0, 0, -windowDays)
			window.End = time.Now()
		}
		return printJSON(eng.Report(window))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sharp-line %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

// evaluateAll loads events and quotes, groups events by subject, and runs a
// batch evaluation
func evaluateAll(ctx context.Context) ([]engine.BatchResult, error) {
	normalizer := ingest.NewNormalizer(logger)
	now := time.Now()

	var rawEvents []ingest.RawEvent
	if err := readJSON(eventsFile, &rawEvents); err != nil {
		return nil, err
	}
	var rawQuotes []ingest.RawQuote
	if err := readJSON(quotesFile, &rawQuotes); err != nil {
		return nil, err
	}

	eventsBySubject := make(map[string][]models.SituationalEvent)
	for i := range rawEvents {
		event, err := normalizer.NormalizeEvent(&rawEvents[i], now)
		if err != nil {
			metrics.RecordValidationRejection()
			logger.WithError(err).WithField("event_id", rawEvents[i].EventID).Warn("Skipping invalid event")
			continue
		}
		eventsBySubject[event.SubjectID] = append(eventsBySubject[event.SubjectID], *event)
	}

	inputs := make([]engine.EvaluationInput, 0, len(rawQuotes))
	for i := range rawQuotes {
		quote, err := normalizer.NormalizeQuote(&rawQuotes[i], now)
		if err != nil {
			metrics.RecordValidationRejection()
			logger.WithError(err).WithField("subject_id", rawQuotes[i].SubjectID).Warn("Skipping invalid quote")
			continue
		}
		inputs = append(inputs, engine.EvaluationInput{
			Quote:    *quote,
			Events:   eventsBySubject[quote.SubjectID],
			Bankroll: bankroll,
		})
	}

	results := eng.EvaluateBatch(ctx, inputs)
	for _, r := range results {
		if r.Err != nil {
			logger.WithError(r.Err).WithField("subject_id", r.SubjectID).Warn("Evaluation failed")
		}
	}
	return results, nil
}

func settleOutcomes() error {
	normalizer := ingest.NewNormalizer(logger)
	now := time.Now()

	var rawOutcomes []ingest.RawOutcome
	if err := readJSON(outcomesFile, &rawOutcomes); err != nil {
		return err
	}

	for i := range rawOutcomes {
		outcome, err := normalizer.NormalizeOutcome(&rawOutcomes[i], now)
		if err != nil {
			metrics.RecordValidationRejection()
			logger.WithError(err).WithField("subject_id", rawOutcomes[i].SubjectID).Warn("Skipping invalid outcome")
			continue
		}
		if err := eng.RecordOutcome(outcome); err != nil {
			logger.WithError(err).WithField("subject_id", outcome.SubjectID).Warn("Outcome rejected")
		}
	}
	return nil
}

func startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server stopped")
		}
	}()
	logger.WithField("addr", addr).Info("Metrics server started")
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
