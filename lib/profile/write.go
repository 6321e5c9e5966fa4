//
// Copyright © 2015 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package profile

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/pierrec/lz4"

	"git.sr.ht/~vejnar/SignalAbacus/lib/feature"
)

const (
	floatPrecision = 6
	averageName    = "average"
)

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', floatPrecision, 64)
}

func writePairs(tw *tsv.Writer, pairs []Pair) {
	for _, v := range pairs {
		tw.WriteString(formatValue(v.S1))
		tw.WriteString(formatValue(v.S2))
	}
}

// WriteMatrix writes a header, one row per gene with the interleaved values
// of both samples from -HalfWindow to +HalfWindow, and a last row with the
// average profile. Gene ids are translated with mapping if not empty.
func WriteMatrix(w io.Writer, m *Matrix, names [2]string, mapping map[string]string) error {
	tw := tsv.NewWriter(w)
	// Header
	tw.WriteString("gene")
	for k := -m.HalfWindow; k <= m.HalfWindow; k++ {
		pos := strconv.Itoa(k)
		tw.WriteString(names[0] + "_" + pos)
		tw.WriteString(names[1] + "_" + pos)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}
	// Genes
	for i, g := range m.Genes {
		tw.WriteString(feature.MapName(g, mapping))
		writePairs(tw, m.Rows[i])
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	// Average
	tw.WriteString(averageName)
	writePairs(tw, m.Mean())
	if err := tw.EndLine(); err != nil {
		return err
	}
	return tw.Flush()
}

// WriteMean writes the average profile with one line per relative position.
func WriteMean(w io.Writer, m *Matrix, names [2]string) error {
	tw := tsv.NewWriter(w)
	tw.WriteString("position")
	tw.WriteString(names[0])
	tw.WriteString(names[1])
	if err := tw.EndLine(); err != nil {
		return err
	}
	for i, v := range m.Mean() {
		tw.WriteString(strconv.Itoa(i - m.HalfWindow))
		writePairs(tw, []Pair{v})
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriteFile creates path and calls write with a writer compressed according
// to the format suffix: "txt", "txt+lz4" or "txt+lz4hc".
func WriteFile(path string, format string, write func(io.Writer) error) error {
	var profileZip string
	if strings.Contains(format, "+") {
		profileZip = strings.SplitN(format, "+", 2)[1]
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "creating", path)
	}
	var writer GenericWriter
	switch profileZip {
	case "lz4":
		writer = lz4.NewWriter(f)
	case "lz4hc":
		lzWriter := lz4.NewWriter(f)
		lzWriter.Header = lz4.Header{CompressionLevel: 9}
		writer = lzWriter
	case "":
		writer = nopCloser{f}
	default:
		f.Close()
		return errors.E(errors.Invalid, "unknown compression", profileZip)
	}
	if err = write(writer); err != nil {
		f.Close()
		return errors.E(err, "writing", path)
	}
	if err = writer.Close(); err != nil {
		f.Close()
		return errors.E(err, "compressing", path)
	}
	if err = f.Close(); err != nil {
		return errors.E(err, "closing", path)
	}
	return nil
}

// Extension returns the file name suffix of a format.
func Extension(format string) string {
	if strings.HasSuffix(format, "+lz4") || strings.HasSuffix(format, "+lz4hc") {
		return ".txt.lz4"
	}
	return ".txt"
}
