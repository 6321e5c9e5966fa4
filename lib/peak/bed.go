//
// Copyright (C) 2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package peak

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
)

// Name returns the name of the i-th peak (0-based) of a track.
func Name(track string, i int) string {
	return track + "_" + strconv.Itoa(i+1)
}

// WriteBED writes one line per peak: chrom, start, end, name and score.
func WriteBED(w io.Writer, idx *chrom.Index, peaks []Peak, track string) error {
	tw := tsv.NewWriter(w)
	for i, p := range peaks {
		tw.WriteString(idx.Name(p.Chrom))
		tw.WriteUint32(uint32(p.Start))
		tw.WriteUint32(uint32(p.End))
		tw.WriteString(Name(track, i))
		tw.WriteString(strconv.FormatFloat(p.Score, 'f', -1, 64))
		if err := tw.EndLine(); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteBEDFile writes peaks to path, gzip compressed if path ends with ".gz".
func WriteBEDFile(path string, idx *chrom.Index, peaks []Peak, track string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.E(err, "creating", path)
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = errors.E(e, "closing", path)
		}
	}()
	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}
	if err = WriteBED(w, idx, peaks, track); err != nil {
		return errors.E(err, "writing", path)
	}
	if zw != nil {
		if err = zw.Close(); err != nil {
			return errors.E(err, "compressing", path)
		}
	}
	return nil
}
