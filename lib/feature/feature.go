//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
)

// Transcript is one annotation record. Start and End are 0-based genomic
// coordinates.
type Transcript struct {
	Gene   string
	Chrom  int
	Strand int8
	Start  int
	End    int
}

// TSS returns the transcription start site: Start on the + strand, End on
// the - strand.
func (t Transcript) TSS() int {
	if t.Strand == -1 {
		return t.End
	}
	return t.Start
}

// AnnotationStats counts the records of an annotation file.
type AnnotationStats struct {
	Transcripts  int `json:"transcripts"`
	Malformed    int `json:"malformed"`
	UnknownChrom int `json:"unknown_chrom"`
}

// ParseStrand returns 1 or -1, and 0 for an unknown strand.
func ParseStrand(strandRaw string) int8 {
	if strandRaw == "+" || strandRaw == "1" || strandRaw == "+1" {
		return 1
	}
	if strandRaw == "-" || strandRaw == "-1" {
		return -1
	}
	return 0
}

// parseTranscript parses gene, chrom, strand, start and end from the first
// five tabulated fields.
func parseTranscript(fields []string) (gene, chromName string, t Transcript, ok bool) {
	if len(fields) < 5 || fields[0] == "" {
		return
	}
	t.Strand = ParseStrand(fields[2])
	if t.Strand == 0 {
		return
	}
	var err error
	if t.Start, err = strconv.Atoi(fields[3]); err != nil {
		return
	}
	if t.End, err = strconv.Atoi(fields[4]); err != nil {
		return
	}
	if t.Start < 0 || t.End < t.Start {
		return
	}
	t.Gene = fields[0]
	return fields[0], fields[1], t, true
}

// ReadTranscripts reads a tabulated annotation (gene, chrom, strand, start,
// end, any extra column ignored). Malformed lines and unknown chromosomes
// are skipped and counted. Load order is kept.
func ReadTranscripts(r io.Reader, idx *chrom.Index) (transcripts []Transcript, stats AnnotationStats, err error) {
	tscanner := bufio.NewScanner(r)
	tscanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for tscanner.Scan() {
		line := strings.TrimRight(tscanner.Text(), "\r")
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		_, chromName, t, ok := parseTranscript(strings.Split(line, "\t"))
		if !ok {
			stats.Malformed++
			continue
		}
		id, found := idx.ID(chromName)
		if !found {
			stats.UnknownChrom++
			continue
		}
		// TSS must be a chromosome position, the body is clipped
		length := idx.Length(id)
		if t.TSS() > length {
			stats.Malformed++
			continue
		}
		if t.End > length {
			t.End = length
		}
		t.Chrom = id
		transcripts = append(transcripts, t)
	}
	if err = tscanner.Err(); err != nil {
		return nil, stats, errors.E(err, "reading transcripts")
	}
	stats.Transcripts = len(transcripts)
	return transcripts, stats, nil
}

// OpenTranscripts reads an annotation file.
func OpenTranscripts(path string, idx *chrom.Index) ([]Transcript, AnnotationStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, AnnotationStats{}, errors.E(err, "opening transcripts", path)
	}
	defer f.Close()
	return ReadTranscripts(f, idx)
}

// GeneIndex maps a gene id to its first transcript in load order.
type GeneIndex map[string]int

func NewGeneIndex(transcripts []Transcript) GeneIndex {
	gi := make(GeneIndex, len(transcripts))
	for i, t := range transcripts {
		if _, ok := gi[t.Gene]; !ok {
			gi[t.Gene] = i
		}
	}
	return gi
}

// ReadGeneList returns one gene id per non-empty line.
func ReadGeneList(r io.Reader) (genes []string, err error) {
	gscanner := bufio.NewScanner(r)
	for gscanner.Scan() {
		g := strings.TrimSpace(gscanner.Text())
		if len(g) == 0 || g[0] == '#' {
			continue
		}
		// First column only
		if i := strings.IndexAny(g, "\t "); i >= 0 {
			g = g[:i]
		}
		genes = append(genes, g)
	}
	if err = gscanner.Err(); err != nil {
		return nil, errors.E(err, "reading gene list")
	}
	return genes, nil
}

func OpenGeneList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "opening gene list", path)
	}
	defer f.Close()
	return ReadGeneList(f)
}
