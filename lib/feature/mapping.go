//
// Copyright © 2015 Charles E. Vejnar
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
	"strings"

	"github.com/grailbio/base/errors"
)

// ReadMapping reads a two column (gene id, display name) table. Lines
// without a second column are ignored.
func ReadMapping(r io.Reader) (map[string]string, error) {
	m := make(map[string]string)
	tscanner := bufio.NewScanner(r)
	for tscanner.Scan() {
		fields := strings.Split(strings.TrimRight(tscanner.Text(), "\r"), "\t")
		if len(fields) < 2 || fields[0] == "" {
			continue
		}
		m[fields[0]] = fields[1]
	}
	if err := tscanner.Err(); err != nil {
		return m, errors.E(err, "reading mapping")
	}
	return m, nil
}

func OpenMapping(mpath string) (map[string]string, error) {
	mfos, err := os.Open(mpath)
	if err != nil {
		return nil, errors.E(err, "opening mapping", mpath)
	}
	defer mfos.Close()
	return ReadMapping(mfos)
}

// MapName returns the mapped name, or name if it is not in m.
func MapName(name string, m map[string]string) string {
	if nn, ok := m[name]; ok {
		return nn
	}
	return name
}
