//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/gzip"
)

// PathSAM stores Path to a SAM file. Gzip is set for gzip-compressed SAM.
type PathSAM struct {
	Path string
	Gzip bool
}

func NewPathSAM(path string) PathSAM {
	return PathSAM{Path: path, Gzip: strings.HasSuffix(path, ".gz")}
}

type samInput struct {
	io.Reader
	closers []io.Closer
	cmd     *exec.Cmd
}

func (s *samInput) Close() (err error) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if e := s.closers[i].Close(); e != nil && err == nil {
			err = e
		}
	}
	if s.cmd != nil {
		if e := s.cmd.Wait(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Open opens a SAM file. If cmd is not empty, the file path is appended to
// cmd and the SAM lines are read from its standard output (for example
// "samtools view -h").
func Open(pathSAM PathSAM, cmd []string) (io.ReadCloser, error) {
	in := &samInput{}
	if len(cmd) == 0 {
		f, err := os.Open(pathSAM.Path)
		if err != nil {
			return nil, errors.E(err, "opening", pathSAM.Path)
		}
		in.Reader = f
		in.closers = append(in.closers, f)
	} else {
		args := append(append([]string{}, cmd[1:]...), pathSAM.Path)
		p := exec.Command(cmd[0], args...)
		p.Stderr = os.Stderr
		pp, err := p.StdoutPipe()
		if err != nil {
			return nil, errors.E(err, "piping", cmd[0])
		}
		if err = p.Start(); err != nil {
			return nil, errors.E(err, "starting", cmd[0])
		}
		in.Reader = pp
		in.cmd = p
	}
	if pathSAM.Gzip && in.cmd == nil {
		zr, err := gzip.NewReader(in.Reader)
		if err != nil {
			in.Close()
			return nil, errors.E(err, "opening gzip", pathSAM.Path)
		}
		in.Reader = zr
		in.closers = append(in.closers, zr)
	}
	return in, nil
}
