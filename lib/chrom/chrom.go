//
// Copyright (C) 2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package chrom maps chromosome names to dense integer ids and lengths.
// All arrays of the other packages are indexed by these ids.
package chrom

import (
	"io"
	"os"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

type Chrom struct {
	ID     int
	Name   string
	Length int
}

// Index is a name <-> id <-> length table. Ids are given in load order.
type Index struct {
	chroms []Chrom
	ids    map[string]int
}

func NewIndex() *Index {
	return &Index{ids: make(map[string]int)}
}

// Add appends a chromosome and returns its id.
func (idx *Index) Add(name string, length int) (int, error) {
	if _, ok := idx.ids[name]; ok {
		return 0, errors.E(errors.Invalid, "duplicate chromosome", name)
	}
	if length <= 0 {
		return 0, errors.E(errors.Invalid, "chromosome", name, "has non-positive length")
	}
	id := len(idx.chroms)
	idx.chroms = append(idx.chroms, Chrom{ID: id, Name: name, Length: length})
	idx.ids[name] = id
	return id, nil
}

// ID returns the id of a chromosome name.
func (idx *Index) ID(name string) (int, bool) {
	id, ok := idx.ids[name]
	return id, ok
}

func (idx *Index) Name(id int) string { return idx.chroms[id].Name }

func (idx *Index) Length(id int) int { return idx.chroms[id].Length }

// Len returns the number of chromosomes.
func (idx *Index) Len() int { return len(idx.chroms) }

func (idx *Index) Chroms() []Chrom { return idx.chroms }

// TotalLength returns the sum of all chromosome lengths.
func (idx *Index) TotalLength() (length int) {
	for _, c := range idx.chroms {
		length += c.Length
	}
	return
}

// SAMHeader returns a SAM header listing the chromosomes in id order, so that
// sam.Reference.ID() of a parsed record is the chromosome id.
func (idx *Index) SAMHeader() (*sam.Header, error) {
	refs := make([]*sam.Reference, len(idx.chroms))
	for i, c := range idx.chroms {
		ref, err := sam.NewReference(c.Name, "", "", c.Length, nil, nil)
		if err != nil {
			return nil, errors.E(err, "building SAM reference", c.Name)
		}
		refs[i] = ref
	}
	return sam.NewHeader(nil, refs)
}

type sizeRow struct {
	Name   string `tsv:"name"`
	Length int64  `tsv:"length"`
}

// ReadSizes parses a two column chromosome size table (name, length).
func ReadSizes(r io.Reader) (*Index, error) {
	idx := NewIndex()
	reader := tsv.NewReader(r)
	reader.Comment = '#'
	for {
		var row sizeRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, "parsing chromosome sizes")
		}
		if _, err := idx.Add(row.Name, int(row.Length)); err != nil {
			return nil, err
		}
	}
	if idx.Len() == 0 {
		return nil, errors.E(errors.Invalid, "no chromosome sizes")
	}
	return idx, nil
}

// OpenSizes reads a chromosome size file.
func OpenSizes(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "opening chromosome sizes", path)
	}
	defer f.Close()
	idx, err := ReadSizes(f)
	if err != nil {
		return nil, errors.E(err, path)
	}
	return idx, nil
}
