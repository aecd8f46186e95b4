// Package index drives one indexing run end to end: open the input, walk its
// members, extract and split every line, and route each line to exactly one of
// the two sinks. The pipeline is strictly sequential; a line is fully written
// before the next one is read.
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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/x-stp/leakidx/internal/extract"
	"github.com/x-stp/leakidx/internal/metrics"
	"github.com/x-stp/leakidx/internal/psl"
	"github.com/x-stp/leakidx/internal/sink"
	"github.com/x-stp/leakidx/internal/source"
	"github.com/x-stp/leakidx/internal/util"
)

// Input types accepted by Config.InputType.
const (
	InputPlain = "plain"
	InputTarGz = "tar.gz"
)

// ctxCheckInterval is how many lines pass between context checks. Checking
// per line is measurable overhead on multi-GB dumps.
const ctxCheckInterval = 4096

// Config describes one indexing run. All paths are operator-supplied;
// InputPath "-" reads standard input.
type Config struct {
	SuffixFile string
	InputPath  string
	InputType  string
	OutputPath string
	ErrorPath  string
	Compress   bool
	BufferSize int
	ShowStats  bool

	// StatsOut receives the progress line and final summary; nil means
	// os.Stderr. ProgressTTY forces the in-place progress line on even when
	// StatsOut is not a terminal (tests).
	StatsOut    io.Writer
	ProgressTTY bool
}

// Indexer holds the immutable pieces of a run: the compiled extractor and the
// suffix index. Build once with New, then Run.
type Indexer struct {
	cfg   Config
	ex    *extract.Extractor
	idx   *psl.Index
	stats *Stats
}

// New validates cfg and loads the public suffix list.
func New(cfg Config) (*Indexer, error) {
	switch cfg.InputType {
	case InputPlain, InputTarGz:
	default:
		return nil, fmt.Errorf("unknown input type %q (want %q or %q)", cfg.InputType, InputPlain, InputTarGz)
	}
	if cfg.InputPath == "" {
		return nil, errors.New("input path is required")
	}
	if cfg.OutputPath == "" || cfg.ErrorPath == "" {
		return nil, errors.New("output and error paths are required")
	}

	f, err := os.Open(cfg.SuffixFile)
	if err != nil {
		return nil, fmt.Errorf("opening suffix list %s: %w", cfg.SuffixFile, err)
	}
	defer f.Close()

	suffixes, err := psl.Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading suffix list %s: %w", cfg.SuffixFile, err)
	}
	idx := psl.NewIndex(suffixes)
	log.Debug().Int("rules", len(suffixes)).Int("hashes", idx.Len()).
		Str("file", cfg.SuffixFile).Msg("suffix index built")

	return &Indexer{
		cfg:   cfg,
		ex:    extract.New(),
		idx:   idx,
		stats: NewStats(),
	}, nil
}

// Stats exposes the run counters, populated during and after Run.
func (ix *Indexer) Stats() *Stats {
	return ix.stats
}

// Run executes the pipeline until the input is exhausted or ctx is canceled.
//
// Error policy: configuration and output I/O errors are fatal; unparsable
// lines are quarantined and never fatal; a corrupt archive member is noted in
// the quarantine, counted, and skipped, while corrupt stream framing ends the
// run.
func (ix *Indexer) Run(ctx context.Context) error {
	in, total, err := ix.openInput()
	if err != nil {
		return err
	}
	if ix.cfg.InputPath != "-" {
		if c, ok := in.(io.Closer); ok {
			defer c.Close()
		}
	}

	counting := source.NewCountingReader(in)
	stream, err := ix.openStream(counting)
	if err != nil {
		return err
	}

	records, err := sink.NewRecords(ix.cfg.OutputPath, ix.cfg.BufferSize, ix.cfg.Compress)
	if err != nil {
		return err
	}
	defer records.Close()
	quarantine, err := sink.NewQuarantine(ix.cfg.ErrorPath, ix.cfg.BufferSize, false)
	if err != nil {
		return err
	}
	defer quarantine.Close()

	statsOut := ix.cfg.StatsOut
	if statsOut == nil {
		statsOut = os.Stderr
	}
	prog := newProgress(statsOut, ix.cfg.ShowStats && ix.progressUsable(), total)
	m := metrics.GetMetrics()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		member, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped, herr := ix.noteMemberError(err, quarantine, m)
			if herr != nil {
				return herr
			}
			if skipped {
				continue
			}
		}

		if member.Name != "" {
			log.Debug().Str("member", member.Name).Msg("processing archive member")
			if err := quarantine.WriteMarker(member.Name); err != nil {
				return err
			}
		}
		if err := ix.processMember(ctx, member, records, quarantine, m, prog, counting); err != nil {
			skipped, herr := ix.noteMemberError(err, quarantine, m)
			if herr != nil {
				return herr
			}
			if skipped {
				continue
			}
		}
		// Plain mode has no archive members; only named members count.
		if member.Name != "" {
			ix.stats.MembersProcessed++
			m.CountMember("processed")
		}
	}

	ix.stats.MembersSkipped = stream.Skipped()
	m.AddMembers("skipped", float64(stream.Skipped()))

	prog.clear()
	if err := records.Close(); err != nil {
		return fmt.Errorf("closing record sink: %w", err)
	}
	if err := quarantine.Close(); err != nil {
		return fmt.Errorf("closing quarantine sink: %w", err)
	}
	m.AddBytes(float64(counting.BytesRead()),
		float64(records.BytesWritten()), float64(quarantine.BytesWritten()))

	if ix.cfg.ShowStats {
		fmt.Fprint(statsOut, ix.stats.Summary(
			counting.BytesRead(), records.BytesWritten(), quarantine.BytesWritten()))
	}
	return nil
}

// openInput returns the raw input reader and its size in bytes, or -1 when
// the size is unknowable (stdin).
func (ix *Indexer) openInput() (io.Reader, int64, error) {
	if ix.cfg.InputPath == "-" {
		return os.Stdin, -1, nil
	}
	f, err := os.Open(ix.cfg.InputPath)
	if err != nil {
		return nil, 0, fmt.Errorf("opening input %s: %w", ix.cfg.InputPath, err)
	}
	total := int64(-1)
	if fi, err := f.Stat(); err == nil {
		total = fi.Size()
	}
	return f, total, nil
}

func (ix *Indexer) openStream(r io.Reader) (source.Stream, error) {
	if ix.cfg.InputType == InputTarGz {
		return source.NewArchive(r)
	}
	return source.NewPlain(r), nil
}

func (ix *Indexer) progressUsable() bool {
	if ix.cfg.ProgressTTY {
		return true
	}
	f, ok := ix.cfg.StatsOut.(*os.File)
	if ix.cfg.StatsOut == nil {
		f, ok = os.Stderr, true
	}
	return ok && util.IsTerminal(f.Fd())
}

// noteMemberError absorbs a *source.MemberError: the member is counted as
// errored, a structural note lands in the quarantine, and the walk continues.
// Every other error comes back unchanged as fatal.
func (ix *Indexer) noteMemberError(err error, quarantine *sink.Quarantine, m *metrics.Metrics) (skipped bool, fatal error) {
	var me *source.MemberError
	if !errors.As(err, &me) {
		return false, err
	}
	log.Warn().Str("member", me.Name).Err(me.Err).Msg("skipping unreadable archive member")
	ix.stats.MembersErrored++
	m.CountMember("errored")
	if werr := quarantine.WriteNote(me.Error()); werr != nil {
		return false, werr
	}
	return true, nil
}

// processMember scans one member line by line. Each UTF-8 line ends up in
// exactly one sink; invalid UTF-8 is dropped and counted. A read failure
// inside an archive member is returned as *source.MemberError so the walk
// can continue.
func (ix *Indexer) processMember(ctx context.Context, member *source.Member,
	records *sink.Records, quarantine *sink.Quarantine,
	m *metrics.Metrics, prog *progress, counting *source.CountingReader) error {

	lines := source.NewLineReader(member.Reader)

	for {
		raw, err := lines.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if member.Name != "" {
				return &source.MemberError{Name: member.Name, Err: err}
			}
			return fmt.Errorf("reading input: %w", err)
		}

		if ix.stats.LinesTotal%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		if !utf8.ValidString(raw) {
			ix.stats.DroppedNonUTF8++
			m.CountLine("dropped")
			continue
		}
		ix.stats.LinesTotal++

		entry, err := ix.ex.Extract(strings.TrimSpace(raw))
		if err != nil {
			kind := extract.KindOf(err)
			ix.stats.CountFailure(kind)
			ix.stats.Quarantined++
			m.CountLine("quarantined")
			m.CountParseFailure(kind.String())
			if werr := quarantine.WriteLine(raw); werr != nil {
				return werr
			}
			prog.maybeRender(ix.stats, counting.BytesRead())
			continue
		}

		sub, reg := psl.Split(entry.Domain, ix.idx)
		if err := records.Write(sink.Record{
			Registrable: reg,
			Subdomain:   sub,
			Username:    entry.Username,
			Password:    entry.Password,
		}); err != nil {
			return err
		}
		ix.stats.Parsed++
		m.CountLine("parsed")
		prog.maybeRender(ix.stats, counting.BytesRead())
	}
	return nil
}
