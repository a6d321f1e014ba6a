/*
   GCRDrive - Commodore 1541 floppy drive emulator
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of GCRDrive.

   GCRDrive is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   GCRDrive is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with GCRDrive. If not, see <http://www.gnu.org/licenses/>.
*/

package disk

import (
	"errors"
	"fmt"
)

var ErrInvalidDiskState = errors.New("invalid disk state")

// State is a lossless copy of a disk's surface, suitable for serializing.
// Entry ix of Lengths and Halftracks belongs to halftrack ix+1.
type State struct {
	Lengths        []int    `json:"lengths"`
	Halftracks     [][]byte `json:"halftracks"`
	WriteProtected bool     `json:"writeProtected"`
	Modified       bool     `json:"modified"`
}

// State returns a copy of the disk with bit precise halftrack lengths.
func (d *Disk) State() *State {
	s := &State{
		Lengths:        make([]int, HalftrackCount),
		Halftracks:     make([][]byte, HalftrackCount),
		WriteProtected: d.writeProtected,
		Modified:       d.modified,
	}
	for ht := 1; ht <= HalftrackCount; ht++ {
		s.Halftracks[ht-1], s.Lengths[ht-1], _ = d.Halftrack(ht)
	}
	return s
}

// FromState creates a disk from a state taken with State.
func FromState(s *State) (*Disk, error) {

	if s == nil {
		return nil, fmt.Errorf("%w: no state", ErrInvalidDiskState)
	}
	if len(s.Lengths) != HalftrackCount || len(s.Halftracks) != HalftrackCount {
		return nil, fmt.Errorf("%w: want %d halftracks, got %d lengths and %d tracks",
			ErrInvalidDiskState, HalftrackCount, len(s.Lengths), len(s.Halftracks))
	}

	d := New()
	for ix, data := range s.Halftracks {
		if err := d.SetHalftrack(ix+1, data, s.Lengths[ix]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDiskState, err)
		}
	}
	d.writeProtected = s.WriteProtected
	d.modified = s.Modified
	return d, nil
}
