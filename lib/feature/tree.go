//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"sort"

	"github.com/biogo/store/interval"
	"github.com/grailbio/base/errors"

	"git.sr.ht/~vejnar/SignalAbacus/lib/peak"
)

// TSSTrees holds one tree of TSS windows per chromosome id.
type TSSTrees []*interval.IntTree

// BuildTSSTrees builds a tree of [TSS-flank, TSS+flank] windows for every
// transcript. Interval UIDs are the transcript load order.
func BuildTSSTrees(transcripts []Transcript, nChrom int, flank int) (TSSTrees, error) {
	if flank < 0 {
		return nil, errors.E(errors.Invalid, "negative TSS flank")
	}
	trees := make(TSSTrees, nChrom)
	for i := range trees {
		trees[i] = &interval.IntTree{}
	}
	for it, t := range transcripts {
		if t.Chrom < 0 || t.Chrom >= nChrom {
			return nil, errors.E(errors.Invalid, "transcript of gene", t.Gene, "has no chromosome")
		}
		tss := t.TSS()
		iv := TSSInterval{Start: tss - flank, End: tss + flank + 1, UID: uintptr(it), Gene: t.Gene}
		if err := trees[t.Chrom].Insert(iv, true); err != nil {
			return nil, err
		}
	}
	for _, tree := range trees {
		tree.AdjustRanges()
	}
	return trees, nil
}

// Genes returns the genes whose TSS window overlaps [start,end) on chromId,
// in transcript load order without duplicates.
func (trees TSSTrees) Genes(chromID, start, end int) []string {
	if chromID < 0 || chromID >= len(trees) {
		return nil
	}
	hits := trees[chromID].Get(TSSInterval{Start: start, End: end})
	if len(hits) == 0 {
		return nil
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID() < hits[j].ID() })
	seen := make(map[string]bool, len(hits))
	var genes []string
	for _, h := range hits {
		g := h.(TSSInterval).Gene
		if !seen[g] {
			seen[g] = true
			genes = append(genes, g)
		}
	}
	return genes
}

// Annotate returns, for each peak, the genes with a TSS window overlapping it.
func (trees TSSTrees) Annotate(peaks []peak.Peak) [][]string {
	genes := make([][]string, len(peaks))
	for i, p := range peaks {
		genes[i] = trees.Genes(p.Chrom, p.Start, p.End)
	}
	return genes
}
