package index

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
	"fmt"
	"strings"
	"time"

	"github.com/x-stp/leakidx/internal/extract"
	"github.com/x-stp/leakidx/internal/util"
)

// Stats holds the counters of one indexing run. The pipeline is strictly
// sequential and the progress renderer runs inline in the same goroutine, so
// plain fields suffice; Prometheus counters carry the concurrently scraped
// view.
type Stats struct {
	start time.Time

	LinesTotal     int64
	Parsed         int64
	Quarantined    int64
	DroppedNonUTF8 int64

	MembersProcessed int64
	MembersSkipped   int64
	MembersErrored   int64

	failures [5]int64 // indexed by extract.FailureKind
}

// NewStats starts the run clock.
func NewStats() *Stats {
	return &Stats{start: time.Now()}
}

// CountFailure tallies one classified extraction failure.
func (s *Stats) CountFailure(k extract.FailureKind) {
	if k > 0 && int(k) < len(s.failures) {
		s.failures[k]++
	}
}

// FailureCount reports the tally for one failure kind.
func (s *Stats) FailureCount(k extract.FailureKind) int64 {
	if k > 0 && int(k) < len(s.failures) {
		return s.failures[k]
	}
	return 0
}

// Elapsed is the wall time since the run started.
func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Summary renders the end-of-run report. Byte totals come from the counting
// reader and the two sinks.
func (s *Stats) Summary(bytesIn, bytesRecords, bytesQuarantine int64) string {
	elapsed := s.Elapsed()
	rate := float64(s.LinesTotal)
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(s.LinesTotal) / secs
	}

	var kinds []string
	for k := extract.KindNoSeparator; k <= extract.KindEmptyDomain; k++ {
		if n := s.FailureCount(k); n > 0 {
			kinds = append(kinds, fmt.Sprintf("%s %d", k, n))
		}
	}
	kindDetail := ""
	if len(kinds) > 0 {
		kindDetail = " (" + strings.Join(kinds, ", ") + ")"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "processed %d lines in %s (%.0f lines/s)\n",
		s.LinesTotal, elapsed.Round(time.Millisecond), rate)
	fmt.Fprintf(&b, "  parsed:      %d\n", s.Parsed)
	fmt.Fprintf(&b, "  quarantined: %d%s\n", s.Quarantined, kindDetail)
	if s.DroppedNonUTF8 > 0 {
		fmt.Fprintf(&b, "  dropped (non-UTF-8): %d\n", s.DroppedNonUTF8)
	}
	if s.MembersProcessed > 0 || s.MembersSkipped > 0 || s.MembersErrored > 0 {
		fmt.Fprintf(&b, "  members: %d processed, %d skipped, %d errored\n",
			s.MembersProcessed, s.MembersSkipped, s.MembersErrored)
	}
	fmt.Fprintf(&b, "  bytes: %s in, %s records, %s quarantine\n",
		util.HumanBytes(bytesIn), util.HumanBytes(bytesRecords), util.HumanBytes(bytesQuarantine))
	return b.String()
}
