//
// Copyright (C) 2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package coverage

import (
	"github.com/grailbio/base/errors"
)

// Normalizer scales raw depth to reads per million mapped reads, optionally
// multiplied by a spike-in factor. The total is only known once ingestion
// is complete.
type Normalizer struct {
	total  uint64
	factor float64
}

func NewNormalizer(totalMapped uint64, spikeIn bool, spikeInFactor float64) (Normalizer, error) {
	if totalMapped == 0 {
		return Normalizer{}, errors.E(errors.Invalid, "no mapped read to normalize with")
	}
	f := 1000000. / float64(totalMapped)
	if spikeIn {
		if spikeInFactor <= 0 {
			return Normalizer{}, errors.E(errors.Invalid, "spike-in factor must be positive")
		}
		f *= spikeInFactor
	}
	return Normalizer{total: totalMapped, factor: f}, nil
}

func (n Normalizer) Total() uint64 { return n.total }

// Factor returns the multiplier applied to raw depth.
func (n Normalizer) Factor() float64 { return n.factor }

func (n Normalizer) Normalize(raw uint32) float64 {
	return float64(raw) * n.factor
}
