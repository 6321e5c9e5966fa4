//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
	"git.sr.ht/~vejnar/SignalAbacus/lib/coverage"
	"git.sr.ht/~vejnar/SignalAbacus/lib/esam"
	"git.sr.ht/~vejnar/SignalAbacus/lib/feature"
	"git.sr.ht/~vejnar/SignalAbacus/lib/profile"
)

const (
	defaultHalfWindow = 5000
	defaultTSSBin     = 10
)

type tssConfig struct {
	common
	pathSAMs       [2]string
	names          [2]string
	spikeInFactors [2]float64
	pathFeatures   string
	pathGenes      string
	pathMapping    string
	halfWindow     int
	binWidth       int
	profileFormat  string
}

func (c *tssConfig) validate() error {
	if err := c.common.validate(); err != nil {
		return err
	}
	for i := range c.pathSAMs {
		if c.pathSAMs[i] == "" {
			return errors.E(errors.Invalid, fmt.Sprintf("no SAM input (see -path_sam%d)", i+1))
		}
		if c.names[i] == "" {
			return errors.E(errors.Invalid, fmt.Sprintf("no track name (see -name%d)", i+1))
		}
		if c.spikeIn && c.spikeInFactors[i] <= 0 {
			return errors.E(errors.Invalid, "spike-in factors must be positive")
		}
	}
	if c.pathFeatures == "" {
		return errors.E(errors.Invalid, "no transcripts (see -path_features)")
	}
	if c.pathGenes == "" {
		return errors.E(errors.Invalid, "no gene list (see -path_genes)")
	}
	if c.halfWindow < 0 {
		return errors.E(errors.Invalid, "half window must not be negative")
	}
	if c.binWidth < 1 {
		return errors.E(errors.Invalid, "bin resolution must be positive")
	}
	switch c.profileFormat {
	case "txt", "txt+lz4", "txt+lz4hc":
	default:
		return errors.E(errors.Invalid, "unknown profile format", c.profileFormat)
	}
	if c.outputDir == "" {
		c.outputDir = fmt.Sprintf("%s-%s_TSSplot_%d", c.names[0], c.names[1], c.halfWindow)
	}
	paths := []string{c.pathSAMs[0], c.pathSAMs[1], c.pathFeatures, c.pathGenes}
	if c.pathMapping != "" {
		paths = append(paths, c.pathMapping)
	}
	return checkExists(paths...)
}

func parseTSS(args []string) (*tssConfig, error) {
	c := &tssConfig{}
	fs := flag.NewFlagSet("tss", flag.ExitOnError)
	c.common.register(fs)
	fs.StringVar(&c.pathSAMs[0], "path_sam1", "", "Path to first SAM file (.gz for gzip)")
	fs.StringVar(&c.pathSAMs[1], "path_sam2", "", "Path to second SAM file (.gz for gzip)")
	fs.StringVar(&c.names[0], "name1", "", "First track name")
	fs.StringVar(&c.names[1], "name2", "", "Second track name")
	fs.Float64Var(&c.spikeInFactors[0], "spikein_factor1", 1., "Spike-in factor of the first track")
	fs.Float64Var(&c.spikeInFactors[1], "spikein_factor2", 1., "Spike-in factor of the second track")
	fs.StringVar(&c.pathFeatures, "path_features", "", "Path to transcripts (gene, chrom, strand, start, end)")
	fs.StringVar(&c.pathGenes, "path_genes", "", "Path to gene list (one gene per line)")
	fs.StringVar(&c.pathMapping, "path_mapping", "", "Path to gene names mapping (tabulated)")
	fs.IntVar(&c.halfWindow, "half_window", defaultHalfWindow, "Profile half window around TSS (bp)")
	fs.IntVar(&c.binWidth, "bin", defaultTSSBin, "Bin resolution (bp)")
	fs.StringVar(&c.profileFormat, "profile_format", "txt", "Profile format (txt, txt+lz4 or txt+lz4hc)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, c.validate()
}

func runTSS(args []string) error {
	c, err := parseTSS(args)
	if err != nil {
		return err
	}
	setMaxProcs(c.nWorker)
	_, err = CombineTSS(c, newProgress(c.verbose))
	return err
}

// CombineTSS ingests two SAM files and writes the per-gene and average TSS
// profiles of the requested genes.
func CombineTSS(c *tssConfig, p progress) (*report, error) {
	// Chromosomes
	idx, err := chrom.OpenSizes(c.pathChromSizes)
	if err != nil {
		return nil, err
	}
	p.Printf("Size was successfully acquired for %d chromosomes", idx.Len())

	// Annotation
	transcripts, astats, err := feature.OpenTranscripts(c.pathFeatures, idx)
	if err != nil {
		return nil, err
	}
	p.Printf("%d transcripts were successfully acquired", astats.Transcripts)
	genes, err := feature.OpenGeneList(c.pathGenes)
	if err != nil {
		return nil, err
	}
	p.Printf("%d genes were requested", len(genes))
	var mapping map[string]string
	if c.pathMapping != "" {
		if mapping, err = feature.OpenMapping(c.pathMapping); err != nil {
			return nil, err
		}
		p.Printf("%d gene names loaded", len(mapping))
	}

	// Output
	if err = makeOutputDir(c.outputDir, p); err != nil {
		return nil, err
	}

	// Reads
	reader, err := esam.NewReader(idx, c.extendLength)
	if err != nil {
		return nil, err
	}
	var inputs []esam.Input
	for _, path := range c.pathSAMs {
		track, err := coverage.New(idx, c.binWidth)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, esam.Input{Path: esam.NewPathSAM(path), Command: c.samCmdIn(), Track: track})
	}
	p.Printf("Processing %s and %s", c.pathSAMs[0], c.pathSAMs[1])
	stats, err := reader.IngestFiles(inputs)
	if err != nil {
		return nil, err
	}
	r := &report{Reads: stats}
	var samples [2]profile.Sample
	for i, rs := range stats {
		p.Printf("%s: %d reads (%d forward, %d reverse)", c.names[i], rs.Total, rs.Forward, rs.Reverse)
		if rs.Skipped() > 0 {
			log.Debug.Printf("%s: skipped %d unmapped, %d secondary, %d unknown chromosome, %d malformed", c.pathSAMs[i], rs.Unmapped, rs.Secondary, rs.UnknownChrom, rs.Malformed)
		}
		norm, err := coverage.NewNormalizer(rs.Total, c.spikeIn, c.spikeInFactors[i])
		if err != nil {
			return nil, errors.E(err, c.pathSAMs[i])
		}
		samples[i] = profile.Sample{Track: inputs[i].Track, Norm: norm}
		r.Norm = append(r.Norm, norm.Factor())
	}

	// Profiles
	m, pstats, err := profile.Profiler{HalfWindow: c.halfWindow, Workers: c.nWorker}.Profile(samples[0], samples[1], transcripts, genes)
	if err != nil {
		return nil, err
	}
	p.Printf("%d genes processed, %d missing, %d duplicated", pstats.Processed, pstats.Missing, pstats.Duplicate)
	for _, g := range pstats.MissingGenes {
		log.Debug.Printf("No transcript for %s", g)
	}
	suffix := fmt.Sprintf("%s-%s_%d", c.names[0], c.names[1], c.halfWindow) + profile.Extension(c.profileFormat)
	pathMean := filepath.Join(c.outputDir, "TSSprofile_"+suffix)
	if err = profile.WriteFile(pathMean, c.profileFormat, func(w io.Writer) error {
		return profile.WriteMean(w, m, c.names)
	}); err != nil {
		return nil, err
	}
	pathMatrix := filepath.Join(c.outputDir, "TSSmatrix_"+suffix)
	if err = profile.WriteFile(pathMatrix, c.profileFormat, func(w io.Writer) error {
		return profile.WriteMatrix(w, m, c.names, mapping)
	}); err != nil {
		return nil, err
	}
	p.Printf("Profiles written to %s", c.outputDir)

	r.Annotation = &astats
	r.Profile = &pstats
	if c.pathReport != "" {
		if err = writeReport(c.pathReport, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
