// Package sink holds the two output writers of an indexing run: the CSV
// record sink for parsed entries and the quarantine sink for everything that
// could not be parsed. Both sit on the same buffered write chain; neither is
// safe for concurrent use, matching the single-writer pipeline.
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
	"encoding/csv"
	"fmt"

	iox "github.com/x-stp/leakidx/internal/io"
)

// Record is one parsed credential, already domain-split.
type Record struct {
	Registrable string
	Subdomain   string
	Username    string
	Password    string
}

// Records writes parsed entries as CSV rows in the fixed column order
// registrable_domain, subdomain, username, password. The csv layer handles
// quoting, so passwords containing commas or quotes survive a round trip.
type Records struct {
	buf *iox.Buffer
	w   *csv.Writer
}

// NewRecords opens the record sink at path. size <= 0 selects the default
// buffer size; compress adds a gzip layer.
func NewRecords(path string, size int, compress bool) (*Records, error) {
	buf, err := iox.NewBuffer(path, size, compress)
	if err != nil {
		return nil, fmt.Errorf("opening record sink: %w", err)
	}
	return &Records{buf: buf, w: csv.NewWriter(buf)}, nil
}

// Write appends one record.
func (r *Records) Write(rec Record) error {
	if err := r.w.Write([]string{rec.Registrable, rec.Subdomain, rec.Username, rec.Password}); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// Flush drains the csv layer and the buffered chain beneath it.
func (r *Records) Flush() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("flushing records: %w", err)
	}
	return r.buf.Flush()
}

// Close flushes and closes the sink. The csv layer must drain before the
// chain below it closes, or trailing rows are lost.
func (r *Records) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.buf.Close()
		return fmt.Errorf("flushing records on close: %w", err)
	}
	return r.buf.Close()
}

// BytesWritten reports bytes pushed into the write chain so far.
func (r *Records) BytesWritten() int64 {
	return r.buf.Metrics().BytesWritten.Load()
}
