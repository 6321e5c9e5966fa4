//
// Copyright (C) 2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package coverage stores extended-read depth per chromosome and strand at a
// fixed bin resolution.
package coverage

import (
	"github.com/grailbio/base/errors"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
)

const (
	Forward int8 = 1
	Reverse int8 = -1
)

// Track holds one arena per strand. Chromosome i owns
// arena[offsets[i] : offsets[i]+nBins[i]].
type Track struct {
	idx      *chrom.Index
	binWidth int
	offsets  []int
	nBins    []int
	fwd, rev []uint32
}

// New allocates an empty track of bin width w for all chromosomes of idx.
func New(idx *chrom.Index, w int) (*Track, error) {
	if w < 1 {
		return nil, errors.E(errors.Invalid, "bin width must be positive")
	}
	t := &Track{idx: idx, binWidth: w, offsets: make([]int, idx.Len()), nBins: make([]int, idx.Len())}
	var total int
	for i := 0; i < idx.Len(); i++ {
		n := (idx.Length(i) + w - 1) / w
		t.offsets[i] = total
		t.nBins[i] = n
		total += n
	}
	t.fwd = make([]uint32, total)
	t.rev = make([]uint32, total)
	return t, nil
}

func (t *Track) Index() *chrom.Index { return t.idx }

func (t *Track) BinWidth() int { return t.binWidth }

// Bins returns the number of bins of a chromosome.
func (t *Track) Bins(chromID int) int { return t.nBins[chromID] }

func (t *Track) strandArena(strand int8) []uint32 {
	if strand == Reverse {
		return t.rev
	}
	return t.fwd
}

// Increment adds one to the bin covering pos. Positions outside the
// chromosome are ignored.
func (t *Track) Increment(chromID, pos int, strand int8) {
	if pos < 0 || pos >= t.idx.Length(chromID) {
		return
	}
	t.strandArena(strand)[t.offsets[chromID]+pos/t.binWidth]++
}

// AddRange adds one to every bin touched by [start,end) after clipping it to
// the chromosome. It returns the number of bins incremented.
func (t *Track) AddRange(chromID, start, end int, strand int8) int {
	if start < 0 {
		start = 0
	}
	if l := t.idx.Length(chromID); end > l {
		end = l
	}
	if start >= end {
		return 0
	}
	arena := t.strandArena(strand)
	first := t.offsets[chromID] + start/t.binWidth
	last := t.offsets[chromID] + (end-1)/t.binWidth
	for i := first; i <= last; i++ {
		arena[i]++
	}
	return last - first + 1
}

// BinValue returns the depth of a bin summed over both strands.
func (t *Track) BinValue(chromID, bin int) uint32 {
	if bin < 0 || bin >= t.nBins[chromID] {
		return 0
	}
	i := t.offsets[chromID] + bin
	return t.fwd[i] + t.rev[i]
}

// ValueAt returns the depth at pos summed over both strands, 0 outside the
// chromosome.
func (t *Track) ValueAt(chromID, pos int) uint32 {
	if pos < 0 || pos >= t.idx.Length(chromID) {
		return 0
	}
	return t.BinValue(chromID, pos/t.binWidth)
}

// StrandValueAt returns the depth at pos for one strand.
func (t *Track) StrandValueAt(chromID, pos int, strand int8) uint32 {
	if pos < 0 || pos >= t.idx.Length(chromID) {
		return 0
	}
	return t.strandArena(strand)[t.offsets[chromID]+pos/t.binWidth]
}

// Chrom returns the per-bin depth of a chromosome, both strands summed, into
// dst which is grown if needed.
func (t *Track) Chrom(chromID int, dst []uint32) []uint32 {
	n := t.nBins[chromID]
	if cap(dst) < n {
		dst = make([]uint32, n)
	}
	dst = dst[:n]
	off := t.offsets[chromID]
	for i := 0; i < n; i++ {
		dst[i] = t.fwd[off+i] + t.rev[off+i]
	}
	return dst
}
