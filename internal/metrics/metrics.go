package metrics

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
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	registry           = prometheus.NewRegistry()
	defaultRegisterer  = promauto.With(registry)
	metricsInitialized sync.Once
	metricsEnabled     bool
	metricsServer      *http.Server
)

// Metrics contains all the Prometheus metrics for the application.
type Metrics struct {
	// Line outcomes: result is "parsed" or "quarantined".
	LinesTotal *prometheus.CounterVec

	// Parse failures by kind (no_separator, pattern_mismatch, ...).
	ParseFailuresTotal *prometheus.CounterVec

	// Archive member outcomes: result is "processed", "skipped" or "errored".
	ArchiveMembersTotal *prometheus.CounterVec

	// Byte counters for the input stream and the two sinks.
	InputBytesTotal  prometheus.Counter
	OutputBytesTotal *prometheus.CounterVec
}

var globalMetrics *Metrics
var metricsOnce sync.Once

// GetMetrics returns the global metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

// EnableMetrics enables metrics collection.
func EnableMetrics() {
	metricsEnabled = true
}

// IsMetricsEnabled returns whether metrics collection is enabled.
func IsMetricsEnabled() bool {
	return metricsEnabled
}

func newMetrics() *Metrics {
	return &Metrics{
		LinesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakidx_lines_total",
				Help: "Total number of input lines scanned, by outcome",
			},
			[]string{"result"},
		),
		ParseFailuresTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakidx_parse_failures_total",
				Help: "Total number of lines that failed extraction, by failure kind",
			},
			[]string{"kind"},
		),
		ArchiveMembersTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakidx_archive_members_total",
				Help: "Total number of archive members encountered, by outcome",
			},
			[]string{"result"},
		),
		InputBytesTotal: defaultRegisterer.NewCounter(
			prometheus.CounterOpts{
				Name: "leakidx_input_bytes_total",
				Help: "Total bytes consumed from the input stream",
			},
		),
		OutputBytesTotal: defaultRegisterer.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leakidx_output_bytes_total",
				Help: "Total bytes pushed into the output sinks",
			},
			[]string{"sink"},
		),
	}
}

// CountLine records one line outcome when metrics are enabled.
func (m *Metrics) CountLine(result string) {
	if !metricsEnabled {
		return
	}
	m.LinesTotal.WithLabelValues(result).Inc()
}

// CountParseFailure records one extraction failure by kind.
func (m *Metrics) CountParseFailure(kind string) {
	if !metricsEnabled {
		return
	}
	m.ParseFailuresTotal.WithLabelValues(kind).Inc()
}

// CountMember records one archive member outcome.
func (m *Metrics) CountMember(result string) {
	if !metricsEnabled {
		return
	}
	m.ArchiveMembersTotal.WithLabelValues(result).Inc()
}

// AddMembers records n archive members with the same outcome at once, used
// for the skip total reported by the stream at end of run.
func (m *Metrics) AddMembers(result string, n float64) {
	if !metricsEnabled || n <= 0 {
		return
	}
	m.ArchiveMembersTotal.WithLabelValues(result).Add(n)
}

// AddBytes records a run's final byte totals for the input and both sinks.
// Run calls it exactly once, after the sinks are closed.
func (m *Metrics) AddBytes(input, records, quarantine float64) {
	if !metricsEnabled {
		return
	}
	m.InputBytesTotal.Add(input)
	m.OutputBytesTotal.WithLabelValues("records").Add(records)
	m.OutputBytesTotal.WithLabelValues("quarantine").Add(quarantine)
}

// StartMetricsServer starts an HTTP server to expose Prometheus metrics.
func StartMetricsServer(addr string) error {
	if !metricsEnabled {
		return nil
	}

	metricsInitialized.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

		metricsServer = &http.Server{
			Addr:    addr,
			Handler: mux,
		}

		go func() {
			log.Info().Str("addr", addr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	})

	return nil
}

// ShutdownMetricsServer gracefully shuts down the metrics server.
func ShutdownMetricsServer(ctx context.Context) error {
	if metricsServer != nil {
		log.Debug().Msg("shutting down metrics server")
		return metricsServer.Shutdown(ctx)
	}
	return nil
}
