//
// Copyright (C) 2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
	"git.sr.ht/~vejnar/SignalAbacus/lib/peak"
)

// WriteAnnotation writes chrom, start, end, name and the comma separated
// genes of each peak ("." without gene).
func WriteAnnotation(w io.Writer, idx *chrom.Index, peaks []peak.Peak, genes [][]string, track string) error {
	if len(peaks) != len(genes) {
		return errors.E(errors.Invalid, "peaks and genes differ in length")
	}
	tw := tsv.NewWriter(w)
	for i, p := range peaks {
		tw.WriteString(idx.Name(p.Chrom))
		tw.WriteUint32(uint32(p.Start))
		tw.WriteUint32(uint32(p.End))
		tw.WriteString(peak.Name(track, i))
		if len(genes[i]) == 0 {
			tw.WriteString(".")
		} else {
			tw.WriteString(strings.Join(genes[i], ","))
		}
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func WriteAnnotationFile(path string, idx *chrom.Index, peaks []peak.Peak, genes [][]string, track string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "creating", path)
	}
	if err = WriteAnnotation(f, idx, peaks, genes, track); err != nil {
		f.Close()
		return errors.E(err, "writing", path)
	}
	if err = f.Close(); err != nil {
		return errors.E(err, "closing", path)
	}
	return nil
}
