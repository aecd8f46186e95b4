// Package source turns a byte source into a sequence of entry members.
//
// Two variants exist behind the Stream interface: a plain text stream (file or
// standard input) exposing a single anonymous member, and a gzip-compressed
// tar archive exposing one member per plain-text file, strictly in archive
// order. The underlying streams are forward-only, so there is no reordering
// and no concurrency; each member must be consumed before the next is
// requested.
package source

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
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
)

// memberBufferSize is the bufio size for reading member data.
const memberBufferSize = 64 * 1024

// Member is one entry-bearing unit of the input: the whole stream in plain
// mode, or a single plain-text archive member. Name is empty in plain mode.
type Member struct {
	Name   string
	Reader *bufio.Reader
}

// LineReader iterates the newline-delimited lines of a member. Lines carry no
// length cap: dump files occasionally contain enormous junk lines, and those
// still have to reach a sink instead of poisoning the rest of the member.
type LineReader struct {
	r   *bufio.Reader
	eof bool
}

// NewLineReader returns a LineReader over a member's data.
func NewLineReader(r *bufio.Reader) *LineReader {
	return &LineReader{r: r}
}

// Next returns the next line with its line break ("\n" or "\r\n") stripped.
// io.EOF signals a cleanly exhausted member; any other error is a read
// failure of the underlying stream.
func (lr *LineReader) Next() (string, error) {
	if lr.eof {
		return "", io.EOF
	}
	line, err := lr.r.ReadString('\n')
	if err == io.EOF {
		lr.eof = true
		if line == "" {
			return "", io.EOF
		}
	} else if err != nil {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// Stream yields members in input order. Next returns io.EOF when the source
// is exhausted, a *MemberError for a member-scoped failure the caller may
// skip past, and any other error for unrecoverable stream corruption.
type Stream interface {
	Next() (*Member, error)
	// Skipped reports how many archive members were passed over by content
	// sniffing or the prior-output extension rule. Always zero in plain mode.
	Skipped() int64
}

// MemberError reports a failure scoped to a single archive member. The
// orchestrator records a structural-error note and continues with the next
// member rather than aborting the run.
type MemberError struct {
	Name string
	Err  error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("archive member %q: %v", e.Name, e.Err)
}

func (e *MemberError) Unwrap() error {
	return e.Err
}

// plainStream exposes the raw byte source as one anonymous member.
type plainStream struct {
	r    io.Reader
	done bool
}

// NewPlain returns a Stream over newline-delimited text.
func NewPlain(r io.Reader) Stream {
	return &plainStream{r: r}
}

func (s *plainStream) Next() (*Member, error) {
	if s.done {
		return nil, io.EOF
	}
	s.done = true
	return &Member{Reader: bufio.NewReaderSize(s.r, memberBufferSize)}, nil
}

func (s *plainStream) Skipped() int64 { return 0 }

// archiveStream walks a gzip-compressed tar archive.
type archiveStream struct {
	tr      *tar.Reader
	skipped int64
}

// NewArchive wraps r, which must carry a gzip-compressed tar stream. A gzip
// header failure here means the input is not the promised format and is fatal.
func NewArchive(r io.Reader) (Stream, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("input is not a valid gzip stream: %w", err)
	}
	return &archiveStream{tr: tar.NewReader(gz)}, nil
}

// Next advances to the next plain-text member.
//
// Members are skipped without touching either output when they are not
// regular files, carry a ".csv" extension (prior output fed back in), or
// sniff as a known binary or markup format. A failure to read a member's
// leading bytes surfaces as *MemberError so the caller can note it and move
// on; tar framing errors are returned as-is and end the walk.
func (s *archiveStream) Next() (*Member, error) {
	for {
		hdr, err := s.tr.Next()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar stream: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		name := path.Base(hdr.Name)
		if strings.EqualFold(path.Ext(name), ".csv") {
			s.skipped++
			continue
		}

		br := bufio.NewReaderSize(s.tr, memberBufferSize)
		head, err := br.Peek(sniffLen)
		if err != nil && err != io.EOF {
			return nil, &MemberError{Name: name, Err: err}
		}
		if !IsText(head) {
			s.skipped++
			continue
		}
		return &Member{Name: name, Reader: br}, nil
	}
}

func (s *archiveStream) Skipped() int64 { return s.skipped }
