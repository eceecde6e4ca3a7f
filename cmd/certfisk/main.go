/*
Package main is the entry point for the certfisk command-line application.

certfisk watches Certificate Transparency log streams for newly issued
certificates whose domains look like phishing attempts against well-known
brands. Its primary functionalities include:
  - Watching a certstream websocket feed and scoring every observed domain.
  - Scoring domains offline, from arguments or stdin.
  - Printing the effective keyword watchlist.

The application uses the Cobra library for command-line interface structure
and flag parsing. It leverages several internal packages:
  - `internal/certstream`: For the websocket stream client and message models.
  - `internal/scoring`: For domain normalization and the risk-scoring engine.
  - `internal/pipeline`: For the concurrent sharded scoring scheduler.
  - `internal/report`: For styled console output and the append-only alert log.
  - `internal/metrics`: For exposing Prometheus metrics.

Graceful shutdown is handled via context cancellation triggered by OS signals
(SIGINT, SIGTERM).
*/
package main

/*
certfisk — phishing domain detection over Certificate Transparency streams
Copyright (C) 2026  certfisk authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/certfisk/certfisk/internal/certstream"
	"github.com/certfisk/certfisk/internal/config"
	"github.com/certfisk/certfisk/internal/keywords"
	"github.com/certfisk/certfisk/internal/logging"
	"github.com/certfisk/certfisk/internal/metrics"
	"github.com/certfisk/certfisk/internal/pipeline"
	"github.com/certfisk/certfisk/internal/report"
	"github.com/certfisk/certfisk/internal/scoring"
)

// Global flags (persistent across commands)
var (
	configFile    string
	logLevel      string
	logFormat     string
	metricsAddr   string
	enableMetrics bool
)

// Flags specific to the watch command
var (
	streamURL   string
	alertLog    string
	keywordFile string
	numWorkers  int
	showStats   bool
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "certfisk",
	Short: "certfisk - phishing domain detection over Certificate Transparency streams",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		// Flags set on the command line override the config file.
		if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") || cfg.LogFormat == "" {
			cfg.LogFormat = logFormat
		}
		if cmd.Flags().Changed("metrics-addr") {
			cfg.MetricsAddr = metricsAddr
		}
		logging.Init(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a certstream feed and score every observed domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("url") {
			cfg.StreamURL = streamURL
		}
		if cmd.Flags().Changed("alert-log") {
			cfg.AlertLog = alertLog
		}
		if cmd.Flags().Changed("keywords") {
			cfg.KeywordFile = keywordFile
		}
		if cmd.Flags().Changed("workers") {
			cfg.Workers = numWorkers
		}
		return watchStream()
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score [domain...]",
	Short: "Score domains offline, from arguments or stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("keywords") {
			cfg.KeywordFile = keywordFile
		}
		return scoreOffline(args)
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Print the effective keyword watchlist",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("keywords") {
			cfg.KeywordFile = keywordFile
		}
		set, err := keywords.Load(cfg.KeywordFile)
		if err != nil {
			return err
		}
		for _, word := range set.Words() {
			fmt.Println(word)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address")
	rootCmd.PersistentFlags().BoolVar(&enableMetrics, "metrics", false, "Enable the Prometheus metrics server")

	watchCmd.Flags().StringVarP(&streamURL, "url", "u", certstream.DefaultStreamURL, "Certstream websocket URL")
	watchCmd.Flags().StringVarP(&alertLog, "alert-log", "o", "certfisk.log", "Append-only alert log file")
	watchCmd.Flags().StringVarP(&keywordFile, "keywords", "k", "", "YAML file with keywords to watch (default built-in list)")
	watchCmd.Flags().IntVarP(&numWorkers, "workers", "w", 0, "Number of scoring workers (0 for auto based on CPU)")
	watchCmd.Flags().BoolVarP(&showStats, "stats", "s", true, "Show statistics during processing")

	scoreCmd.Flags().StringVarP(&keywordFile, "keywords", "k", "", "YAML file with keywords to watch (default built-in list)")
	keywordsCmd.Flags().StringVarP(&keywordFile, "keywords", "k", "", "YAML file with keywords to watch (default built-in list)")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(keywordsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildEngine assembles the scoring engine from the configured keyword set.
func buildEngine() (*scoring.Engine, error) {
	set, err := keywords.Load(cfg.KeywordFile)
	if err != nil {
		return nil, fmt.Errorf("loading keywords: %w", err)
	}
	logrus.Infof("Watching %d keywords", set.Len())
	return scoring.NewEngine(set.Words(), scoring.PSLResolver{}), nil
}

// watchStream is the handler for the 'watch' command.
func watchStream() error {
	if enableMetrics {
		metrics.EnableMetrics()
		if err := metrics.StartMetricsServer(cfg.MetricsAddr); err != nil {
			logrus.WithError(err).Warn("Failed to start metrics server")
		}
	}

	engine, err := buildEngine()
	if err != nil {
		return err
	}

	alerts, err := report.NewAlertWriter(cfg.AlertLog)
	if err != nil {
		return fmt.Errorf("opening alert log: %w", err)
	}
	defer alerts.Close()
	reporter := report.NewReporter(alerts, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logrus.Infof("Received signal %v, initiating shutdown...", sig)
		cancel()
	}()

	scheduler, err := pipeline.NewScheduler(ctx, cfg.Workers)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	defer scheduler.Shutdown()

	pipe := pipeline.New(engine, reporter, scheduler)

	streamCfg := certstream.DefaultConfig()
	streamCfg.URL = cfg.StreamURL
	client := certstream.NewClient(streamCfg, logrus.StandardLogger())

	var streamWg sync.WaitGroup
	streamWg.Add(1)
	go func() {
		defer streamWg.Done()
		if err := client.Run(ctx); err != nil {
			logrus.WithError(err).Debug("Stream client stopped")
		}
	}()

	var statsWg sync.WaitGroup
	if showStats {
		statsWg.Add(1)
		go func() {
			defer statsWg.Done()
			displayWatchStats(ctx, pipe)
		}()
	}

	logrus.Infof("Connecting to certificate stream at %s", cfg.StreamURL)
	pipe.Run(ctx, client.Messages())

	// Stream finished or cancelled; drain in-flight scoring work.
	pipe.Wait()
	streamWg.Wait()
	if showStats {
		cancel()
		statsWg.Wait()
	}

	if enableMetrics {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metrics.ShutdownMetricsServer(shutdownCtx); err != nil {
			logrus.WithError(err).Debug("Metrics server shutdown")
		}
	}

	displayFinalWatchStats(pipe)
	return nil
}

// scoreOffline is the handler for the 'score' command. With no arguments it
// reads one domain per line from stdin.
func scoreOffline(args []string) error {
	engine, err := buildEngine()
	if err != nil {
		return err
	}
	reporter := report.NewReporter(nil, os.Stdout)

	score := func(domain string) {
		rep := engine.Score(domain)
		if rep.Score >= scoring.AlertThreshold {
			reporter.Report(rep)
		} else {
			fmt.Printf("%s (score %d)\n", rep.Normalized, rep.Score)
		}
	}

	if len(args) > 0 {
		for _, domain := range args {
			score(domain)
		}
		return nil
	}

	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		domain := sc.Text()
		if domain == "" {
			continue
		}
		score(domain)
	}
	return sc.Err()
}

// displayWatchStats periodically shows stream processing progress.
func displayWatchStats(ctx context.Context, pipe *pipeline.Pipeline) {
	ticker := time.NewTicker(time.Second * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap := pipe.Snapshot()
			elapsed := snap.Elapsed.Seconds()
			if elapsed < 0.1 {
				elapsed = 0.1
			}
			rate := float64(snap.DomainsScored) / elapsed

			// Carriage return keeps the progress on one line; alerts print
			// above it via stdout and force a refresh on the next tick.
			fmt.Fprintf(os.Stderr, "\rMessages: %d | Certs: %d | Heartbeats: %d | Domains: %d | Rate: %.0f dom/s | Alerts: %d",
				snap.Messages,
				snap.CertUpdates,
				snap.Heartbeats,
				snap.DomainsScored,
				rate,
				snap.Alerts,
			)
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr)
			return
		}
	}
}

// displayFinalWatchStats shows the summary statistics at the end.
func displayFinalWatchStats(pipe *pipeline.Pipeline) {
	snap := pipe.Snapshot()
	rate := 0.0
	if snap.Elapsed.Seconds() > 0 {
		rate = float64(snap.DomainsScored) / snap.Elapsed.Seconds()
	}

	fmt.Println()
	fmt.Printf("\n--- Final Stream Statistics ---\n")
	fmt.Printf(" Processing Time: %v\n", snap.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Total Messages: %d\n", snap.Messages)
	fmt.Printf("    Cert Updates: %d\n", snap.CertUpdates)
	fmt.Printf("      Heartbeats: %d\n", snap.Heartbeats)
	fmt.Printf(" Skipped Messages: %d\n", snap.SkippedMessages)
	fmt.Printf("    Domains Seen: %d\n", snap.DomainsSeen)
	fmt.Printf("  Domains Scored: %d\n", snap.DomainsScored)
	fmt.Printf("          Alerts: %d\n", snap.Alerts)
	fmt.Printf("    Overall Rate: %.0f domains/sec\n", rate)
	fmt.Printf("-------------------------------\n")
}
