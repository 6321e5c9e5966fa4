//
// Copyright (C) 2015-2021 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/grailbio/base/errors"

	"git.sr.ht/~vejnar/SignalAbacus/lib/esam"
	"git.sr.ht/~vejnar/SignalAbacus/lib/feature"
	"git.sr.ht/~vejnar/SignalAbacus/lib/profile"
)

type peakReport struct {
	Peaks    int `json:"peaks"`
	Chroms   int `json:"chroms_with_peaks"`
	WithGene int `json:"peaks_with_gene,omitempty"`
}

type report struct {
	Reads      []esam.ReadStats         `json:"reads"`
	Norm       []float64                `json:"normalization_factors,omitempty"`
	Peaks      *peakReport              `json:"peaks,omitempty"`
	Annotation *feature.AnnotationStats `json:"annotation,omitempty"`
	Profile    *profile.Stats           `json:"profile,omitempty"`
}

func writeReport(pathReport string, r *report) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.E(err, "encoding report")
	}
	if pathReport == "-" {
		fmt.Println(string(b))
		return nil
	}
	f, err := os.Create(pathReport)
	if err != nil {
		return errors.E(err, "creating report", pathReport)
	}
	if _, err = f.Write(b); err != nil {
		f.Close()
		return errors.E(err, "writing report", pathReport)
	}
	return f.Close()
}
