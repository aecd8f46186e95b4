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
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/x-stp/leakidx/internal/util"
)

// progressRedrawsPerSecond bounds how often the in-place line is rewritten.
// Redrawing per line would spend more time on terminal I/O than on parsing.
const progressRedrawsPerSecond = 8

// progress renders a single in-place status line on out. It is called from
// the indexing loop itself; the rate limiter turns the per-line call into
// ~8 redraws per second. Disabled entirely when out is not a terminal.
type progress struct {
	out     io.Writer
	enabled bool
	lim     *rate.Limiter
	total   int64 // input size in bytes; <0 when unknown (stdin)
	drawn   bool
}

func newProgress(out io.Writer, enabled bool, total int64) *progress {
	return &progress{
		out:     out,
		enabled: enabled,
		lim:     rate.NewLimiter(rate.Limit(progressRedrawsPerSecond), 1),
		total:   total,
	}
}

// maybeRender redraws the status line if the limiter allows it.
func (p *progress) maybeRender(s *Stats, bytesRead int64) {
	if !p.enabled || !p.lim.AllowN(time.Now(), 1) {
		return
	}
	p.render(s, bytesRead)
}

func (p *progress) render(s *Stats, bytesRead int64) {
	pos := util.HumanBytes(bytesRead)
	if p.total > 0 {
		pos = fmt.Sprintf("%s/%s (%.0f%%)",
			pos, util.HumanBytes(p.total), float64(bytesRead)/float64(p.total)*100)
	}
	fmt.Fprintf(p.out, "\r\x1b[2K%d lines | %d parsed | %d quarantined | %s",
		s.LinesTotal, s.Parsed, s.Quarantined, pos)
	p.drawn = true
}

// clear ends the in-place line so the final summary starts on a fresh row.
func (p *progress) clear() {
	if p.enabled && p.drawn {
		fmt.Fprint(p.out, "\r\x1b[2K")
	}
}
