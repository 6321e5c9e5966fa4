//
// Copyright (C) 2015-2022 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.
//

package cmapper

// CoordMapper translates between genomic coordinates and coordinates
// relative to an anchor (a TSS) in the direction of transcription.
// Relative coordinates go from -HalfWindow to +HalfWindow.
type CoordMapper struct {
	Anchor      int
	Strand      int8
	HalfWindow  int
	ChromLength int
}

// Length returns the number of positions of the window.
func (cm *CoordMapper) Length() int {
	return 2*cm.HalfWindow + 1
}

// Relative2Genome translates a relative coordinate to the genome. inside is
// false if the genomic coordinate is outside the chromosome.
func (cm *CoordMapper) Relative2Genome(rcoord int) (gcoord int, inside bool) {
	if cm.Strand == -1 {
		gcoord = cm.Anchor - rcoord
	} else {
		gcoord = cm.Anchor + rcoord
	}
	inside = gcoord >= 0 && gcoord < cm.ChromLength
	return
}

// Genome2Relative translates a genomic coordinate to the relative system.
// within is false outside the window.
func (cm *CoordMapper) Genome2Relative(gcoord int) (rcoord int, within bool) {
	if cm.Strand == -1 {
		rcoord = cm.Anchor - gcoord
	} else {
		rcoord = gcoord - cm.Anchor
	}
	within = rcoord >= -cm.HalfWindow && rcoord <= cm.HalfWindow
	return
}

// Index returns the 0-based array index of a relative coordinate.
func (cm *CoordMapper) Index(rcoord int) int {
	return rcoord + cm.HalfWindow
}
