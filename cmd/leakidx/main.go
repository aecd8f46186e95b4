/*
Package main is the entry point for the leakidx command-line application.

leakidx indexes credential-dump text into structured CSV. Its
functionalities include:
  - Indexing plain text files or gzip-compressed tar archives of dump text
    into (registrable_domain, subdomain, username, password) CSV records,
    with unparsable lines preserved in a quarantine file.
  - Splitting a single domain into subdomain and registrable parts against a
    public suffix list, for debugging the splitter.
  - Fetching and caching the official public suffix list.

The application uses the Cobra library for command-line interface structure
and flag parsing. It leverages several internal packages:
  - `internal/psl`: public-suffix-list loading, the suffix index and splitter.
  - `internal/extract`: credential line parsing with classified failures.
  - `internal/source`: plain/archive entry streams and content sniffing.
  - `internal/sink`: the CSV record and quarantine writers.
  - `internal/index`: the sequential indexing pipeline and run statistics.
  - `internal/metrics`: optional Prometheus metrics for monitoring runs.

Graceful shutdown is handled via context cancellation triggered by OS signals
(SIGINT, SIGTERM).
*/
package main

/*
leakidx — fast tool in Go for indexing credential dump archives
Copyright (C) 2025  Pepijn van der Stap <leakidx@vanderstap.info>

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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/x-stp/leakidx/internal/index"
	"github.com/x-stp/leakidx/internal/io"
	"github.com/x-stp/leakidx/internal/metrics"
	"github.com/x-stp/leakidx/internal/psl"
)

// Global flags (persistent across commands)
var (
	debug       bool
	metricsPort int
)

// Flags specific to the index command
var (
	suffixFile string
	inputPath  string
	inputType  string
	outputPath string
	errorPath  string
	compress   bool
	bufferSize int
	showStats  bool
)

// Flags for split / fetch-psl
var (
	splitSuffixFile string
	pslOutFile      string
)

var rootCmd = &cobra.Command{
	Use:   "leakidx",
	Short: "leakidx - index credential dump text into structured CSV",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).With().Timestamp().Logger()

		if metricsPort > 0 {
			metrics.EnableMetrics()
			if err := metrics.StartMetricsServer(fmt.Sprintf(":%d", metricsPort)); err != nil {
				log.Warn().Err(err).Msg("failed to start metrics server")
			}
		}
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index dump text into CSV records plus a quarantine file",
	Long: `Reads credential dump text (a plain file, stdin, or a tar.gz archive),
extracts username/password/domain triples, splits each domain against the
public suffix list, and writes one CSV row per parsed line. Lines that cannot
be parsed are preserved verbatim in the error file, grouped under //<member>
markers when reading an archive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndex(cmd.Context())
	},
}

var splitCmd = &cobra.Command{
	Use:   "split <domain>",
	Short: "Split one domain into subdomain and registrable parts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSplit(args[0])
	},
}

var fetchPSLCmd = &cobra.Command{
	Use:   "fetch-psl",
	Short: "Fetch and save the public suffix list to a local file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchAndSavePSL(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().IntVar(&metricsPort, "metrics-port", 0, "Prometheus metrics port (0 to disable)")

	indexCmd.Flags().StringVarP(&suffixFile, "tld-file", "t", psl.DefaultListFile, "Public suffix list file")
	indexCmd.Flags().StringVarP(&inputPath, "input", "i", "-", "Input file ('-' for stdin)")
	indexCmd.Flags().StringVar(&inputType, "input-type", index.InputPlain, "Input format: plain or tar.gz")
	indexCmd.Flags().StringVarP(&outputPath, "output", "o", "records.csv", "Output CSV file")
	indexCmd.Flags().StringVarP(&errorPath, "errors", "e", "errors.txt", "Quarantine file for unparsable lines")
	indexCmd.Flags().BoolVar(&compress, "compress", false, "Compress output CSV with gzip")
	indexCmd.Flags().IntVarP(&bufferSize, "buffer", "b", io.DefaultBufferSize, "Write buffer size in bytes")
	indexCmd.Flags().BoolVarP(&showStats, "stats", "s", true, "Show progress and a final summary")

	splitCmd.Flags().StringVarP(&splitSuffixFile, "tld-file", "t", psl.DefaultListFile, "Public suffix list file")

	fetchPSLCmd.Flags().StringVarP(&pslOutFile, "output", "o", psl.DefaultListFile, "Output file for the public suffix list")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(fetchPSLCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if serr := metrics.ShutdownMetricsServer(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("metrics server shutdown")
	}
	cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Error().Msg("interrupted")
		} else {
			log.Error().Err(err).Msg("fatal")
		}
		os.Exit(1)
	}
}

// runIndex is the handler for the 'index' command.
func runIndex(ctx context.Context) error {
	log.Debug().
		Str("input", inputPath).Str("type", inputType).
		Str("output", outputPath).Str("errors", errorPath).
		Bool("compress", compress).Msg("starting indexing run")

	ix, err := index.New(index.Config{
		SuffixFile: suffixFile,
		InputPath:  inputPath,
		InputType:  inputType,
		OutputPath: outputPath,
		ErrorPath:  errorPath,
		Compress:   compress,
		BufferSize: bufferSize,
		ShowStats:  showStats,
	})
	if err != nil {
		return err
	}

	if err := ix.Run(ctx); err != nil {
		return fmt.Errorf("indexing %s: %w", inputPath, err)
	}
	return nil
}

// runSplit is the handler for the 'split' command.
func runSplit(domain string) error {
	f, err := os.Open(splitSuffixFile)
	if err != nil {
		return fmt.Errorf("opening suffix list %s: %w", splitSuffixFile, err)
	}
	defer f.Close()

	suffixes, err := psl.Load(f)
	if err != nil {
		return fmt.Errorf("loading suffix list %s: %w", splitSuffixFile, err)
	}

	sub, reg := psl.Split(domain, psl.NewIndex(suffixes))
	fmt.Printf("subdomain:   %s\nregistrable: %s\n", sub, reg)
	return nil
}

// fetchAndSavePSL downloads the public suffix list, saves it, and validates
// the saved file by re-loading it and reporting the rule count.
func fetchAndSavePSL(ctx context.Context) error {
	log.Info().Str("url", psl.RemoteURL).Msg("fetching public suffix list")

	body, err := psl.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(pslOutFile, body, 0644); err != nil {
		return fmt.Errorf("saving suffix list to %s: %w", pslOutFile, err)
	}

	suffixes, err := psl.Load(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("validating saved suffix list: %w", err)
	}
	log.Info().Int("rules", len(suffixes)).Str("file", pslOutFile).
		Msg("public suffix list saved")
	return nil
}
