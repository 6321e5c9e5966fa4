//
// Copyright © 2015 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"git.sr.ht/~vejnar/SignalAbacus/lib/esam"
)

var version = "DEV"

const usage = `Usage: signalabacus <command> [options]

Commands:
  peaks    Call peaks above a normalized threshold (one SAM file)
  tss      Average TSS profiles of two SAM files over a list of genes
  version  Print version and quit

Run "signalabacus <command> -h" for the options of a command.
`

// common holds the options shared by all commands.
type common struct {
	pathChromSizes string
	rawSAMCmdIn    string
	extendLength   int
	spikeIn        bool
	outputDir      string
	pathReport     string
	nWorker        int
	verbose        bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.pathChromSizes, "chrom_sizes", "", "Path to chromosome sizes (name and length, tabulated)")
	fs.StringVar(&c.rawSAMCmdIn, "sam_command_in", "", "Command line to execute for opening each SAM file (space separated, e.g. 'samtools view -h')")
	fs.IntVar(&c.extendLength, "extend", esam.DefaultExtendLength, "Read extension length (average fragment length)")
	fs.BoolVar(&c.spikeIn, "spikein", false, "Multiply normalized signal by spike-in factor(s)")
	fs.StringVar(&c.outputDir, "output_dir", "", "Output folder (default derived from track names)")
	fs.StringVar(&c.pathReport, "path_report", "", "Write report to path (stdout with -)")
	fs.IntVar(&c.nWorker, "num_worker", 1, "Number of worker(s)")
	fs.BoolVar(&c.verbose, "verbose", false, "Verbose")
}

func (c *common) validate() error {
	if c.pathChromSizes == "" {
		return errors.E(errors.Invalid, "no chromosome sizes (see -chrom_sizes)")
	}
	if c.extendLength < 1 {
		return errors.E(errors.Invalid, "extension length must be positive")
	}
	if c.nWorker < 1 {
		return errors.E(errors.Invalid, "number of workers must be positive")
	}
	return checkExists(c.pathChromSizes)
}

func (c *common) samCmdIn() []string {
	return strings.Fields(c.rawSAMCmdIn)
}

func checkExists(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return errors.E(errors.NotExist, p, "not found")
		}
	}
	return nil
}

// progress prints timed progress messages in verbose mode.
type progress struct {
	verbose   bool
	timeStart time.Time
}

func newProgress(verbose bool) progress {
	return progress{verbose: verbose, timeStart: time.Now()}
}

func (p progress) Printf(format string, args ...interface{}) {
	if p.verbose {
		log.Printf("%.1fmin - %s", time.Since(p.timeStart).Minutes(), fmt.Sprintf(format, args...))
	}
}

// makeOutputDir creates dir, replacing an existing folder.
func makeOutputDir(dir string, p progress) error {
	if _, err := os.Stat(dir); err == nil {
		p.Printf("Removing the old output folder %s", dir)
		if err = os.RemoveAll(dir); err != nil {
			return errors.E(err, "removing", dir)
		}
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.E(err, "creating output folder", dir)
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "peaks":
		err = runPeaks(os.Args[2:])
	case "tss":
		err = runTSS(os.Args[2:])
	case "version", "-version", "--version":
		fmt.Println(version)
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func setMaxProcs(nWorker int) {
	runtime.GOMAXPROCS(nWorker * 2)
}
