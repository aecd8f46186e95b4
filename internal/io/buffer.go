package io

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

/*
Package io provides the buffered write chain used by the output sinks:
file → optional gzip → bufio, closed in reverse order so compressed output is
always properly terminated.

The pipeline writes from a single goroutine, so the chain is deliberately
synchronous; the only shared state is the atomic byte counters, which the
progress display reads concurrently.
*/

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// DefaultBufferSize is the default size for the bufio layer of a chain.
const DefaultBufferSize = 256 * 1024 // 256KB

// ErrBufferClosed is returned when writing to a closed buffer.
var ErrBufferClosed = errors.New("write buffer closed")

// BufferMetrics holds the write counters of a Buffer. Read concurrently by the
// progress display, hence atomic.
type BufferMetrics struct {
	BytesWritten atomic.Int64
	WriteCount   atomic.Int64
}

// Buffer is a buffered, optionally gzip-compressed file writer.
type Buffer struct {
	file   *os.File
	gz     *gzip.Writer // nil when not compressing
	w      *bufio.Writer
	closed bool

	metrics BufferMetrics
}

// NewBuffer creates the parent directory if needed, truncates path and sets up
// the write chain. size <= 0 selects DefaultBufferSize.
func NewBuffer(path string, size int, compress bool) (*Buffer, error) {
	if size <= 0 {
		size = DefaultBufferSize
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	b := &Buffer{file: file}
	if compress {
		gz, err := gzip.NewWriterLevel(file, gzip.BestSpeed)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to create gzip writer for %s: %w", path, err)
		}
		b.gz = gz
		b.w = bufio.NewWriterSize(gz, size)
	} else {
		b.w = bufio.NewWriterSize(file, size)
	}
	return b, nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.closed {
		return 0, ErrBufferClosed
	}
	n, err := b.w.Write(p)
	b.metrics.BytesWritten.Add(int64(n))
	b.metrics.WriteCount.Add(1)
	if err != nil {
		return n, fmt.Errorf("buffer write: %w", err)
	}
	return n, nil
}

// WriteString writes s without an intermediate allocation.
func (b *Buffer) WriteString(s string) (int, error) {
	if b.closed {
		return 0, ErrBufferClosed
	}
	n, err := b.w.WriteString(s)
	b.metrics.BytesWritten.Add(int64(n))
	b.metrics.WriteCount.Add(1)
	if err != nil {
		return n, fmt.Errorf("buffer write: %w", err)
	}
	return n, nil
}

// Flush pushes buffered bytes down the chain to the file.
func (b *Buffer) Flush() error {
	if b.closed {
		return ErrBufferClosed
	}
	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("buffer flush: %w", err)
	}
	if b.gz != nil {
		if err := b.gz.Flush(); err != nil {
			return fmt.Errorf("gzip flush: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the chain in order: bufio → gzip → file.
// Close is idempotent.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.w.Flush(); err != nil {
		return fmt.Errorf("flush on close: %w", err)
	}
	if b.gz != nil {
		if err := b.gz.Close(); err != nil {
			return fmt.Errorf("gzip close: %w", err)
		}
	}
	if err := b.file.Close(); err != nil {
		return fmt.Errorf("file close: %w", err)
	}
	return nil
}

// Metrics returns the buffer's counters for concurrent reading.
func (b *Buffer) Metrics() *BufferMetrics {
	return &b.metrics
}
