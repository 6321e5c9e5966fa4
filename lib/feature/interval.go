//
// Copyright (C) 2015-2021 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"fmt"

	"github.com/biogo/store/interval"
)

// TSSInterval is a window around the TSS of transcript UID.
type TSSInterval struct {
	Start, End int
	UID        uintptr
	Gene       string
}

func (i TSSInterval) Overlap(b interval.IntRange) bool {
	// Half-open interval indexing.
	return i.End > b.Start && i.Start < b.End
}

func (i TSSInterval) ID() uintptr {
	return i.UID
}

func (i TSSInterval) Range() interval.IntRange {
	return interval.IntRange{Start: i.Start, End: i.End}
}

func (i TSSInterval) String() string {
	return fmt.Sprintf("[%d,%d)#%d-%s", i.Start, i.End, i.UID, i.Gene)
}
