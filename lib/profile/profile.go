//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package profile builds TSS-centered signal profiles of two samples.
package profile

import (
	"github.com/grailbio/base/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/fatih/set.v0"

	"git.sr.ht/~vejnar/SignalAbacus/lib/cmapper"
	"git.sr.ht/~vejnar/SignalAbacus/lib/coverage"
	"git.sr.ht/~vejnar/SignalAbacus/lib/feature"
)

// Pair holds the normalized signal of both samples at one position.
type Pair struct {
	S1, S2 float64
}

// Sample is a normalized coverage track.
type Sample struct {
	Track *coverage.Track
	Norm  coverage.Normalizer
}

// Matrix has one row of 2*HalfWindow+1 positions per processed gene, in
// request order. Row index i is relative position i-HalfWindow.
type Matrix struct {
	HalfWindow int
	Genes      []string
	Rows       [][]Pair
	Sum        []Pair
}

func newMatrix(halfWindow int) *Matrix {
	return &Matrix{HalfWindow: halfWindow, Sum: make([]Pair, 2*halfWindow+1)}
}

// Processed returns the number of gene rows.
func (m *Matrix) Processed() int { return len(m.Rows) }

// Mean returns the average profile over all genes, zero without gene.
func (m *Matrix) Mean() []Pair {
	mean := make([]Pair, len(m.Sum))
	if len(m.Rows) == 0 {
		return mean
	}
	n := float64(len(m.Rows))
	for i, s := range m.Sum {
		mean[i] = Pair{S1: s.S1 / n, S2: s.S2 / n}
	}
	return mean
}

// Stats counts requested genes.
type Stats struct {
	Requested    int      `json:"requested"`
	Processed    int      `json:"processed"`
	Missing      int      `json:"missing"`
	Duplicate    int      `json:"duplicate"`
	MissingGenes []string `json:"missing_genes,omitempty"`
}

// Profiler extracts windows of +/-HalfWindow bp around TSSs.
type Profiler struct {
	HalfWindow int
	Workers    int
}

// Window returns the signal of s around the TSS of t, oriented in the
// direction of transcription. Positions outside the chromosome are zero.
func (p Profiler) Window(t feature.Transcript, s Sample, dst []float64) []float64 {
	cm := cmapper.CoordMapper{Anchor: t.TSS(), Strand: t.Strand, HalfWindow: p.HalfWindow, ChromLength: s.Track.Index().Length(t.Chrom)}
	if cap(dst) < cm.Length() {
		dst = make([]float64, cm.Length())
	}
	dst = dst[:cm.Length()]
	for k := -p.HalfWindow; k <= p.HalfWindow; k++ {
		g, inside := cm.Relative2Genome(k)
		if inside {
			dst[cm.Index(k)] = s.Norm.Normalize(s.Track.ValueAt(t.Chrom, g))
		} else {
			dst[cm.Index(k)] = 0
		}
	}
	return dst
}

func (p Profiler) row(t feature.Transcript, s1, s2 Sample) []Pair {
	v1 := p.Window(t, s1, nil)
	v2 := p.Window(t, s2, nil)
	r := make([]Pair, len(v1))
	for i := range r {
		r[i] = Pair{S1: v1[i], S2: v2[i]}
	}
	return r
}

// Profile builds the matrix of the requested genes. Each gene uses its first
// transcript in annotation order; genes without transcript are counted as
// missing and repeated genes are processed once.
func (p Profiler) Profile(s1, s2 Sample, transcripts []feature.Transcript, genes []string) (*Matrix, Stats, error) {
	var stats Stats
	if p.HalfWindow < 0 {
		return nil, stats, errors.E(errors.Invalid, "negative half window")
	}
	if s1.Track.Index() != s2.Track.Index() {
		return nil, stats, errors.E(errors.Invalid, "samples use different chromosome indexes")
	}
	// Select transcripts
	gi := feature.NewGeneIndex(transcripts)
	seen := set.New(set.NonThreadSafe)
	var selected []int
	m := newMatrix(p.HalfWindow)
	for _, g := range genes {
		stats.Requested++
		if seen.Has(g) {
			stats.Duplicate++
			continue
		}
		seen.Add(g)
		it, ok := gi[g]
		if !ok {
			stats.Missing++
			stats.MissingGenes = append(stats.MissingGenes, g)
			continue
		}
		selected = append(selected, it)
		m.Genes = append(m.Genes, g)
	}

	// Extract windows
	m.Rows = make([][]Pair, len(selected))
	var g errgroup.Group
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	for i, it := range selected {
		i, t := i, transcripts[it]
		g.Go(func() error {
			m.Rows[i] = p.row(t, s1, s2)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	// Sum in request order
	for _, r := range m.Rows {
		for i, v := range r {
			m.Sum[i].S1 += v.S1
			m.Sum[i].S2 += v.S2
		}
	}
	stats.Processed = m.Processed()
	return m, stats, nil
}
