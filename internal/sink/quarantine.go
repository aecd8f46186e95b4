package sink

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

	iox "github.com/x-stp/leakidx/internal/io"
	"github.com/x-stp/leakidx/internal/util"
)

// Marker prefixes. A "//" line names the archive member the following
// quarantined lines came from; "//!" flags a structural problem (an
// unreadable member) rather than an unparsable entry.
const (
	markerPrefix = "//"
	notePrefix   = "//!"
)

// Quarantine preserves rejected input verbatim, one line per entry, with
// member markers interleaved so every quarantined line is traceable to its
// source. Nothing that reaches the quarantine is ever dropped or rewritten.
type Quarantine struct {
	buf *iox.Buffer
}

// NewQuarantine opens the quarantine sink at path.
func NewQuarantine(path string, size int, compress bool) (*Quarantine, error) {
	buf, err := iox.NewBuffer(path, size, compress)
	if err != nil {
		return nil, fmt.Errorf("opening quarantine sink: %w", err)
	}
	return &Quarantine{buf: buf}, nil
}

// WriteLine records one unparsable input line exactly as read.
func (q *Quarantine) WriteLine(line string) error {
	if _, err := q.buf.WriteString(line); err != nil {
		return fmt.Errorf("writing quarantine line: %w", err)
	}
	if _, err := q.buf.WriteString("\n"); err != nil {
		return fmt.Errorf("writing quarantine line: %w", err)
	}
	return nil
}

// WriteMarker records that subsequent quarantined lines belong to the named
// archive member. Written once per member, before any of its lines.
func (q *Quarantine) WriteMarker(name string) error {
	if _, err := q.buf.WriteString(markerPrefix + util.SanitizeMarker(name) + "\n"); err != nil {
		return fmt.Errorf("writing member marker: %w", err)
	}
	return nil
}

// WriteNote records a structural error, such as a member that could not be
// read, so a later pass over the quarantine sees the gap.
func (q *Quarantine) WriteNote(note string) error {
	if _, err := q.buf.WriteString(notePrefix + util.SanitizeMarker(note) + "\n"); err != nil {
		return fmt.Errorf("writing structural note: %w", err)
	}
	return nil
}

// Flush drains the buffered chain.
func (q *Quarantine) Flush() error {
	return q.buf.Flush()
}

// Close flushes and closes the sink. Idempotent.
func (q *Quarantine) Close() error {
	return q.buf.Close()
}

// BytesWritten reports bytes pushed into the write chain so far.
func (q *Quarantine) BytesWritten() int64 {
	return q.buf.Metrics().BytesWritten.Load()
}
