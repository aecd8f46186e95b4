package source_test

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
	"archive/tar"
	"bufio"
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x-stp/leakidx/internal/source"
)

type tarEntry struct {
	name     string
	body     []byte
	typeflag byte
}

func buildArchive(t *testing.T, entries []tarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		tf := e.typeflag
		if tf == 0 {
			tf = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     e.name,
			Mode:     0o644,
			Size:     int64(len(e.body)),
			Typeflag: tf,
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if tf == tar.TypeReg {
			_, err := tw.Write(e.body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

// pngHeader is the fixed 8-byte PNG signature plus enough trailing bytes for
// the detector to commit to image/png.
var pngHeader = append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)

func TestArchiveStreamYieldsTextMembersInOrder(t *testing.T) {
	t.Parallel()

	raw := buildArchive(t, []tarEntry{
		{name: "dumps/", typeflag: tar.TypeDir},
		{name: "dumps/first.txt", body: []byte("alice:hunter2@example.com\n")},
		{name: "dumps/logo.png", body: pngHeader},
		{name: "dumps/prior-output.csv", body: []byte("example.com,,bob,pw\n")},
		{name: "dumps/page.html", body: []byte("<!DOCTYPE html><html><body>x</body></html>")},
		{name: "dumps/second.txt", body: []byte("bob@example.net;pw\n")},
	})

	s, err := source.NewArchive(bytes.NewReader(raw))
	require.NoError(t, err)

	var names []string
	var bodies []string
	for {
		m, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(m.Reader)
		require.NoError(t, err)
		names = append(names, m.Name)
		bodies = append(bodies, string(data))
	}

	assert.Equal(t, []string{"first.txt", "second.txt"}, names)
	assert.Equal(t, []string{"alice:hunter2@example.com\n", "bob@example.net;pw\n"}, bodies)
	assert.Equal(t, int64(3), s.Skipped(), "png, csv and html members should be skipped")
}

func TestArchiveStreamPassesUnrecognizedBinary(t *testing.T) {
	t.Parallel()

	// No known magic bytes: the sniffer cannot rule it out, so the member is
	// handed to the line scanner.
	blob := []byte{0x00, 0x01, 0x02, 0xfe, 0xff, 0x00, 0x10}
	raw := buildArchive(t, []tarEntry{
		{name: "blob.bin", body: blob},
	})

	s, err := source.NewArchive(bytes.NewReader(raw))
	require.NoError(t, err)

	m, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "blob.bin", m.Name)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(0), s.Skipped())
}

func TestArchiveStreamSkipsEmptyMember(t *testing.T) {
	t.Parallel()

	raw := buildArchive(t, []tarEntry{
		{name: "empty.txt"},
		{name: "real.txt", body: []byte("u:p@d.com\n")},
	})

	s, err := source.NewArchive(bytes.NewReader(raw))
	require.NoError(t, err)

	// Empty members sniff as text and simply yield no lines.
	m, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "empty.txt", m.Name)
	data, err := io.ReadAll(m.Reader)
	require.NoError(t, err)
	assert.Empty(t, data)

	m, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "real.txt", m.Name)
}

func TestNewArchiveRejectsNonGzip(t *testing.T) {
	t.Parallel()

	_, err := source.NewArchive(strings.NewReader("plain text, not gzip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gzip")
}

func TestPlainStreamSingleMember(t *testing.T) {
	t.Parallel()

	s := source.NewPlain(strings.NewReader("a:b@c.com\n"))

	m, err := s.Next()
	require.NoError(t, err)
	assert.Empty(t, m.Name)
	data, err := io.ReadAll(m.Reader)
	require.NoError(t, err)
	assert.Equal(t, "a:b@c.com\n", string(data))

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(0), s.Skipped())
}

func TestLineReaderSplitsLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf endings", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
		{"empty input", "", nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			lr := source.NewLineReader(bufio.NewReader(strings.NewReader(tc.input)))
			var got []string
			for {
				line, err := lr.Next()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				got = append(got, line)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

// TestLineReaderUnboundedLineLength feeds a line far past the bufio buffer
// size; it must come back whole rather than error out like a capped scanner.
func TestLineReaderUnboundedLineLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2*1024*1024)
	lr := source.NewLineReader(bufio.NewReaderSize(strings.NewReader(long+"\nshort\n"), 4*1024))

	line, err := lr.Next()
	require.NoError(t, err)
	assert.Len(t, line, len(long))

	line, err = lr.Next()
	require.NoError(t, err)
	assert.Equal(t, "short", line)

	_, err = lr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestCountingReaderTracksBytes(t *testing.T) {
	t.Parallel()

	cr := source.NewCountingReader(strings.NewReader("0123456789"))
	buf := make([]byte, 4)

	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int64(4), cr.BytesRead())

	rest, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Len(t, rest, 6)
	assert.Equal(t, int64(10), cr.BytesRead())
}

func TestIsText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		head []byte
		want bool
	}{
		{"plain ascii", []byte("alice:hunter2@example.com\n"), true},
		{"empty", nil, true},
		{"png", pngHeader, false},
		{"html", []byte("<!DOCTYPE html><html></html>"), false},
		{"xml", []byte(`<?xml version="1.0"?><root/>`), false},
		{"unknown binary", []byte{0x00, 0x01, 0xfe, 0xff}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, source.IsText(tc.head))
		})
	}
}
