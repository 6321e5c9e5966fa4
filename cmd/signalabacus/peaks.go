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
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
	"git.sr.ht/~vejnar/SignalAbacus/lib/coverage"
	"git.sr.ht/~vejnar/SignalAbacus/lib/esam"
	"git.sr.ht/~vejnar/SignalAbacus/lib/feature"
	"git.sr.ht/~vejnar/SignalAbacus/lib/peak"
)

const (
	defaultPeakBin       = 1
	defaultPeakThreshold = 5.
	defaultTSSFlank      = 1000
)

type peaksConfig struct {
	common
	pathSAM       string
	trackName     string
	binWidth      int
	threshold     float64
	spikeInFactor float64
	pathFeatures  string
	tssFlank      int
	compress      bool
}

func (c *peaksConfig) validate() error {
	if err := c.common.validate(); err != nil {
		return err
	}
	if c.pathSAM == "" {
		return errors.E(errors.Invalid, "no SAM input (see -path_sam)")
	}
	if c.trackName == "" {
		return errors.E(errors.Invalid, "no track name (see -name)")
	}
	if c.binWidth < 1 {
		return errors.E(errors.Invalid, "bin resolution must be positive")
	}
	if c.threshold <= 0 {
		return errors.E(errors.Invalid, "threshold must be positive")
	}
	if c.spikeIn && c.spikeInFactor <= 0 {
		return errors.E(errors.Invalid, "spike-in factor must be positive")
	}
	if c.pathFeatures != "" {
		if c.tssFlank < 0 {
			return errors.E(errors.Invalid, "TSS flank must not be negative")
		}
		if err := checkExists(c.pathFeatures); err != nil {
			return err
		}
	}
	if c.outputDir == "" {
		c.outputDir = c.trackName + "_findPeaks"
	}
	return checkExists(c.pathSAM)
}

func parsePeaks(args []string) (*peaksConfig, error) {
	c := &peaksConfig{}
	fs := flag.NewFlagSet("peaks", flag.ExitOnError)
	c.common.register(fs)
	fs.StringVar(&c.pathSAM, "path_sam", "", "Path to SAM file (.gz for gzip)")
	fs.StringVar(&c.trackName, "name", "", "Track name")
	fs.IntVar(&c.binWidth, "bin", defaultPeakBin, "Bin resolution (bp)")
	fs.Float64Var(&c.threshold, "threshold", defaultPeakThreshold, "Peak threshold (normalized reads per million)")
	fs.Float64Var(&c.spikeInFactor, "spikein_factor", 1., "Spike-in factor")
	fs.StringVar(&c.pathFeatures, "path_features", "", "Path to transcripts (gene, chrom, strand, start, end) to annotate peaks")
	fs.IntVar(&c.tssFlank, "tss_flank", defaultTSSFlank, "Annotate peaks overlapping TSS +/- flank")
	fs.BoolVar(&c.compress, "gzip", true, "Compress BED output with gzip")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, c.validate()
}

func runPeaks(args []string) error {
	c, err := parsePeaks(args)
	if err != nil {
		return err
	}
	setMaxProcs(c.nWorker)
	_, err = FindPeaks(c, newProgress(c.verbose))
	return err
}

// FindPeaks ingests one SAM file at peak resolution, calls peaks and writes
// them as BED.
func FindPeaks(c *peaksConfig, p progress) (*report, error) {
	// Chromosomes
	idx, err := chrom.OpenSizes(c.pathChromSizes)
	if err != nil {
		return nil, err
	}
	p.Printf("Size was successfully acquired for %d chromosomes", idx.Len())

	// Output
	if err = makeOutputDir(c.outputDir, p); err != nil {
		return nil, err
	}
	pathBED := filepath.Join(c.outputDir, c.trackName+".bed")
	if c.compress {
		pathBED += ".gz"
	}
	p.Printf("Filename for the BED file %s", pathBED)

	// Reads
	track, err := coverage.New(idx, c.binWidth)
	if err != nil {
		return nil, err
	}
	reader, err := esam.NewReader(idx, c.extendLength)
	if err != nil {
		return nil, err
	}
	p.Printf("Processing %s", c.pathSAM)
	stats, err := reader.IngestFiles([]esam.Input{{Path: esam.NewPathSAM(c.pathSAM), Command: c.samCmdIn(), Track: track}})
	if err != nil {
		return nil, err
	}
	rs := stats[0]
	p.Printf("%d reads of the SAM file processed", rs.Total)
	p.Printf("%d forward reads acquired", rs.Forward)
	p.Printf("%d reverse reads acquired", rs.Reverse)
	if rs.Skipped() > 0 {
		log.Debug.Printf("%s: skipped %d unmapped, %d secondary, %d unknown chromosome, %d malformed", c.pathSAM, rs.Unmapped, rs.Secondary, rs.UnknownChrom, rs.Malformed)
	}

	// Peaks
	norm, err := coverage.NewNormalizer(rs.Total, c.spikeIn, c.spikeInFactor)
	if err != nil {
		return nil, errors.E(err, c.pathSAM)
	}
	p.Printf("Normalization factor: %f", norm.Factor())
	result, err := peak.Detector{Threshold: c.threshold, Workers: c.nWorker}.Detect(track, norm)
	if err != nil {
		return nil, err
	}
	p.Printf("%d chromosomes successfully included into the peak calling (%d peaks)", result.Chroms, len(result.Peaks))
	if err = peak.WriteBEDFile(pathBED, idx, result.Peaks, c.trackName); err != nil {
		return nil, err
	}

	r := &report{Reads: []esam.ReadStats{rs}, Peaks: &peakReport{Peaks: len(result.Peaks), Chroms: result.Chroms}}

	// Annotation
	if c.pathFeatures != "" {
		transcripts, astats, err := feature.OpenTranscripts(c.pathFeatures, idx)
		if err != nil {
			return nil, err
		}
		p.Printf("%d transcripts were successfully acquired", astats.Transcripts)
		trees, err := feature.BuildTSSTrees(transcripts, idx.Len(), c.tssFlank)
		if err != nil {
			return nil, err
		}
		genes := trees.Annotate(result.Peaks)
		pathGenes := filepath.Join(c.outputDir, c.trackName+".genes.tsv")
		if err = feature.WriteAnnotationFile(pathGenes, idx, result.Peaks, genes, c.trackName); err != nil {
			return nil, err
		}
		for _, g := range genes {
			if len(g) > 0 {
				r.Peaks.WithGene++
			}
		}
		r.Annotation = &astats
	}

	if c.pathReport != "" {
		if err = writeReport(c.pathReport, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}
