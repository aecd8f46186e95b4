package sink_test

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
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-stp/leakidx/internal/sink"
)

func TestRecordsColumnOrderAndQuoting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.csv")
	r, err := sink.NewRecords(path, 0, false)
	require.NoError(t, err)

	require.NoError(t, r.Write(sink.Record{
		Registrable: "example.com",
		Subdomain:   "mail",
		Username:    "alice",
		Password:    "hunter2",
	}))
	require.NoError(t, r.Write(sink.Record{
		Registrable: "example.net",
		Username:    "bob",
		Password:    `p,w"x`,
	}))
	require.NoError(t, r.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"example.com", "mail", "alice", "hunter2"}, rows[0])
	assert.Equal(t, []string{"example.net", "", "bob", `p,w"x`}, rows[1])
	assert.Positive(t, r.BytesWritten())
}

func TestRecordsCompressedRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.csv.gz")
	r, err := sink.NewRecords(path, 0, true)
	require.NoError(t, err)
	require.NoError(t, r.Write(sink.Record{Registrable: "example.org", Username: "c", Password: "d"}))
	require.NoError(t, r.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, "example.org,,c,d\n", string(data))
}

func TestQuarantinePreservesLinesVerbatim(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "errors.txt")
	q, err := sink.NewQuarantine(path, 0, false)
	require.NoError(t, err)

	require.NoError(t, q.WriteMarker("combo_list.txt"))
	require.NoError(t, q.WriteLine("no separators here"))
	require.NoError(t, q.WriteLine("  :leading-colon@x.com"))
	require.NoError(t, q.WriteNote("member garbled.txt: unexpected EOF"))
	require.NoError(t, q.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "//combo_list.txt", lines[0])
	assert.Equal(t, "no separators here", lines[1])
	assert.Equal(t, "  :leading-colon@x.com", lines[2])
	assert.Equal(t, "//!member garbled.txt: unexpected EOF", lines[3])
}

func TestQuarantineMarkerSanitizesControlChars(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "errors.txt")
	q, err := sink.NewQuarantine(path, 0, false)
	require.NoError(t, err)
	require.NoError(t, q.WriteMarker("evil\nname\t.txt"))
	require.NoError(t, q.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "//evil_name_.txt\n", string(data))
}

func TestQuarantineCloseIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "errors.txt")
	q, err := sink.NewQuarantine(path, 0, false)
	require.NoError(t, err)
	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
}
