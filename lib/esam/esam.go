//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"bufio"
	"bytes"
	"io"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"golang.org/x/sync/errgroup"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
	"git.sr.ht/~vejnar/SignalAbacus/lib/coverage"
)

const DefaultExtendLength = 150

// ReadStats counts the alignments seen while ingesting one input.
// Total is always Forward + Reverse.
type ReadStats struct {
	Lines        uint64 `json:"lines"`
	Total        uint64 `json:"total"`
	Forward      uint64 `json:"forward"`
	Reverse      uint64 `json:"reverse"`
	Unmapped     uint64 `json:"unmapped"`
	Secondary    uint64 `json:"secondary"`
	UnknownChrom uint64 `json:"unknown_chrom"`
	Malformed    uint64 `json:"malformed"`
}

// Skipped returns the number of alignment lines not added to the track.
func (s ReadStats) Skipped() uint64 {
	return s.Unmapped + s.Secondary + s.UnknownChrom + s.Malformed
}

// Reader extends single-end alignments to a fixed fragment length and adds
// them to a coverage track.
type Reader struct {
	ExtendLength int
	idx          *chrom.Index
	header       *sam.Header
}

func NewReader(idx *chrom.Index, extendLength int) (*Reader, error) {
	if extendLength < 1 {
		return nil, errors.E(errors.Invalid, "extension length must be positive")
	}
	h, err := idx.SAMHeader()
	if err != nil {
		return nil, err
	}
	return &Reader{ExtendLength: extendLength, idx: idx, header: h}, nil
}

// field returns the bounds of the n-th (0-based) tab separated field of
// line.
func field(line []byte, n int) (start, end int, ok bool) {
	for i := 0; i < n; i++ {
		j := bytes.IndexByte(line[start:], '\t')
		if j < 0 {
			return 0, 0, false
		}
		start += j + 1
	}
	end = bytes.IndexByte(line[start:], '\t')
	if end < 0 {
		return 0, 0, false
	}
	return start, start + end, true
}

// refName returns the RNAME field of a SAM line.
func refName(line []byte) ([]byte, bool) {
	start, end, ok := field(line, 2)
	if !ok {
		return nil, false
	}
	return line[start:end], true
}

// knownName reports whether name is "*", "=" or a chromosome of the index.
func (r *Reader) knownName(name []byte) bool {
	if len(name) == 1 && (name[0] == '*' || name[0] == '=') {
		return true
	}
	_, ok := r.idx.ID(string(name))
	return ok
}

// dropMate replaces a mate reference (RNEXT) missing from the index with
// "*" so the record still decodes against the index header.
func (r *Reader) dropMate(line []byte) []byte {
	start, end, ok := field(line, 6)
	if !ok || r.knownName(line[start:end]) {
		return line
	}
	fixed := make([]byte, 0, len(line)-(end-start)+1)
	fixed = append(fixed, line[:start]...)
	fixed = append(fixed, '*')
	return append(fixed, line[end:]...)
}

// refSpan returns the number of reference bases covered by the alignment.
func refSpan(r *sam.Record) int {
	var span int
	for _, co := range r.Cigar {
		span += co.Len() * co.Type().Consumes().Reference
	}
	if span == 0 {
		span = r.Seq.Length
	}
	if span == 0 {
		span = 1
	}
	return span
}

// Extend returns the fragment of a mapped read: forward reads are extended
// downstream from their start, reverse reads upstream from their end.
func (r *Reader) Extend(rec *sam.Record) (start, end int) {
	if rec.Flags&sam.Reverse != 0 {
		end = rec.Pos + refSpan(rec)
		return end - r.ExtendLength, end
	}
	return rec.Pos, rec.Pos + r.ExtendLength
}

// ReadInto parses SAM lines from in and adds every mapped primary alignment
// to track. Only read errors are returned; bad lines are counted.
func (r *Reader) ReadInto(in io.Reader, track *coverage.Track) (stats ReadStats, err error) {
	if track.Index() != r.idx {
		return stats, errors.E(errors.Invalid, "track and reader use different chromosome indexes")
	}
	br := bufio.NewReaderSize(in, 1<<16)
	var rec sam.Record
	for {
		line, rerr := br.ReadBytes('\n')
		if rerr != nil && rerr != io.EOF {
			return stats, errors.E(rerr, "reading alignments")
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 && line[0] != '@' {
			stats.Lines++
			r.add(line, &rec, track, &stats)
		}
		if rerr == io.EOF {
			break
		}
	}
	return stats, nil
}

func (r *Reader) add(line []byte, rec *sam.Record, track *coverage.Track, stats *ReadStats) {
	// Chromosome
	name, ok := refName(line)
	if !ok {
		stats.Malformed++
		return
	}
	if !(len(name) == 1 && name[0] == '*') {
		if _, ok := r.idx.ID(string(name)); !ok {
			stats.UnknownChrom++
			return
		}
	}
	// Record
	if err := rec.UnmarshalSAM(r.header, r.dropMate(line)); err != nil {
		stats.Malformed++
		return
	}
	if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil {
		stats.Unmapped++
		return
	}
	if rec.Flags&(sam.Secondary|sam.Supplementary) != 0 {
		stats.Secondary++
		return
	}
	// Extended read
	start, end := r.Extend(rec)
	if rec.Flags&sam.Reverse != 0 {
		track.AddRange(rec.Ref.ID(), start, end, coverage.Reverse)
		stats.Reverse++
	} else {
		track.AddRange(rec.Ref.ID(), start, end, coverage.Forward)
		stats.Forward++
	}
	stats.Total++
}

// Input is one alignment source and the track it fills.
type Input struct {
	Path    PathSAM
	Command []string
	Track   *coverage.Track
}

// IngestFiles reads all inputs concurrently, each into its own track.
// Statistics are returned in input order.
func (r *Reader) IngestFiles(inputs []Input) ([]ReadStats, error) {
	stats := make([]ReadStats, len(inputs))
	var g errgroup.Group
	for i := range inputs {
		i := i
		g.Go(func() error {
			in, err := Open(inputs[i].Path, inputs[i].Command)
			if err != nil {
				return err
			}
			s, err := r.ReadInto(in, inputs[i].Track)
			if cerr := in.Close(); err == nil && cerr != nil {
				err = errors.E(cerr, "closing", inputs[i].Path.Path)
			}
			if err != nil {
				return errors.E(err, inputs[i].Path.Path)
			}
			stats[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
