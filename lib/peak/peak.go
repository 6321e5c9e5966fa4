//
// Copyright (C) 2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package peak calls enriched intervals on a normalized coverage track.
// Every contiguous run of bins at or above the threshold is one peak.
package peak

import (
	"golang.org/x/sync/errgroup"
	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/SignalAbacus/lib/coverage"
)

// Peak is a half-open interval [Start,End) on chromosome Chrom. Summit is
// the leftmost position of the maximum normalized signal, Score.
type Peak struct {
	Chrom  int
	Start  int
	End    int
	Summit int
	Score  float64
}

type state int

const (
	outside state = iota
	inside
)

// scanner walks the bins of one chromosome.
type scanner struct {
	chrom     int
	binWidth  int
	length    int
	threshold float64

	state state
	cur   Peak
	last  int
	peaks []Peak
}

func newScanner(chrom, binWidth, length int, threshold float64) *scanner {
	return &scanner{chrom: chrom, binWidth: binWidth, length: length, threshold: threshold}
}

func (s *scanner) enter(pos int, value float64) {
	s.state = inside
	s.cur = Peak{Chrom: s.chrom, Start: pos, Summit: pos, Score: value}
}

func (s *scanner) update(pos int, value float64) {
	// Strictly greater: ties keep the leftmost summit
	if value > s.cur.Score {
		s.cur.Summit = pos
		s.cur.Score = value
	}
}

// exit closes the current peak at the bin starting at lastPos.
func (s *scanner) exit(lastPos int) {
	s.state = outside
	end := lastPos + s.binWidth
	if end > s.length {
		end = s.length
	}
	s.cur.End = end
	s.peaks = append(s.peaks, s.cur)
}

// step consumes the bin starting at pos.
func (s *scanner) step(pos int, value float64) {
	switch s.state {
	case outside:
		if value >= s.threshold {
			s.enter(pos, value)
		}
	case inside:
		if value >= s.threshold {
			s.update(pos, value)
		} else {
			s.exit(s.last)
		}
	}
	s.last = pos
}

// finish closes a peak still open at the chromosome end.
func (s *scanner) finish() []Peak {
	if s.state == inside {
		s.exit(s.last)
	}
	return s.peaks
}

// scan steps through nBins bins, reading raw depths with bin.
func (s *scanner) scan(nBins int, bin func(b int) uint32, norm coverage.Normalizer) []Peak {
	for b := 0; b < nBins; b++ {
		s.step(b*s.binWidth, norm.Normalize(bin(b)))
	}
	return s.finish()
}

// Detector calls peaks with a fixed threshold in normalized reads per million.
type Detector struct {
	Threshold float64
	Workers   int
}

// Result lists peaks ordered by chromosome id then start. Chroms is the
// number of chromosomes with at least one peak.
type Result struct {
	Peaks  []Peak
	Chroms int
}

// Detect scans each chromosome of track independently. Bins are read in
// place from the track.
func (d Detector) Detect(track *coverage.Track, norm coverage.Normalizer) (Result, error) {
	idx := track.Index()
	perChrom := make([][]Peak, idx.Len())
	withPeaks := set.New(set.ThreadSafe)

	var g errgroup.Group
	if d.Workers > 0 {
		g.SetLimit(d.Workers)
	}
	for i := 0; i < idx.Len(); i++ {
		i := i
		g.Go(func() error {
			s := newScanner(i, track.BinWidth(), idx.Length(i), d.Threshold)
			perChrom[i] = s.scan(track.Bins(i), func(b int) uint32 { return track.BinValue(i, b) }, norm)
			if len(perChrom[i]) > 0 {
				withPeaks.Add(i)
			}
			return nil
		})
	}
	var r Result
	if err := g.Wait(); err != nil {
		return r, err
	}
	for _, peaks := range perChrom {
		r.Peaks = append(r.Peaks, peaks...)
	}
	r.Chroms = withPeaks.Size()
	return r, nil
}
