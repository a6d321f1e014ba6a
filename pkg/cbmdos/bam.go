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

package cbmdos

import (
	"errors"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

const (
	bamTrack       = 18
	bamTracks      = 35
	dosFormat      = 'A'
	dosVersion     = "2A"
	fileInterleave = 10
	dirInterleave  = 3
	padding        = 0xA0
)

// format writes an empty BAM and directory. All sectors except the BAM and
// the first directory block are marked free.
func (img *Image) format(name, id string) error {

	if len(id) != 2 {
		return errors.New("disk ID must have two characters")
	}

	for ix := range img.data {
		img.data[ix] = 0
	}

	bam := img.sector(bamTrack, 0)
	bam[0x00] = bamTrack
	bam[0x01] = 1
	bam[0x02] = dosFormat

	for t := 1; t <= bamTracks; t++ {
		for s := 0; s < disk.NumberOfSectorsInTrack(t); s++ {
			img.setFree(TS{t, s}, true)
		}
	}

	copy(bam[0x90:0xA0], petsciiName(name, 16))
	bam[0xA0], bam[0xA1] = padding, padding
	copy(bam[0xA2:0xA4], petsciiName(id, 2))
	bam[0xA4] = padding
	copy(bam[0xA5:0xA7], dosVersion)
	for ix := 0xA7; ix <= 0xAA; ix++ {
		bam[ix] = padding
	}

	img.setFree(TS{bamTrack, 0}, false)
	img.setFree(TS{bamTrack, 1}, false)

	dir := img.sector(bamTrack, 1)
	dir[0], dir[1] = 0, 0xFF

	return nil
}

func (img *Image) bamEntry(t int) []byte {
	off := 4 * t
	return img.sector(bamTrack, 0)[off : off+4]
}

func (img *Image) isFree(ts TS) bool {
	if ts.T < 1 || ts.T > bamTracks {
		return false
	}
	e := img.bamEntry(ts.T)
	return e[1+ts.S/8]&(1<<(ts.S%8)) != 0
}

func (img *Image) setFree(ts TS, free bool) {
	e := img.bamEntry(ts.T)
	mask := byte(1 << (ts.S % 8))
	switch {
	case free && e[1+ts.S/8]&mask == 0:
		e[1+ts.S/8] |= mask
		e[0]++
	case !free && e[1+ts.S/8]&mask != 0:
		e[1+ts.S/8] &^= mask
		e[0]--
	}
}

// FreeBlocks is the number of free blocks as shown in directory listings,
// i.e. without the directory track.
func (img *Image) FreeBlocks() int {
	ret := 0
	for t := 1; t <= bamTracks; t++ {
		if t != bamTrack {
			ret += int(img.bamEntry(t)[0])
		}
	}
	return ret
}

// allocate finds a free sector on track t, starting at sector from and
// continuing in steps of one, and marks it as used.
func (img *Image) allocateOnTrack(t, from int) (TS, bool) {
	n := disk.NumberOfSectorsInTrack(t)
	for ix := 0; ix < n; ix++ {
		ts := TS{t, (from + ix) % n}
		if img.isFree(ts) {
			img.setFree(ts, false)
			return ts, true
		}
	}
	return TS{}, false
}

// allocateData allocates the next data block after prev. Tracks are used
// starting next to the directory track, moving outwards towards track 1
// first, then inwards towards track 35.
func (img *Image) allocateData(prev TS) (TS, error) {

	var order []int
	for t := bamTrack - 1; t > 0; t-- {
		order = append(order, t)
	}
	for t := bamTrack + 1; t <= bamTracks; t++ {
		order = append(order, t)
	}

	start := 0
	from := 0
	if prev.T != 0 {
		for ix, t := range order {
			if t == prev.T {
				start = ix
				from = prev.S + fileInterleave
				break
			}
		}
	}

	for ix := start; ix < len(order); ix++ {
		if ts, ok := img.allocateOnTrack(order[ix], from); ok {
			return ts, nil
		}
		from = 0
	}
	return TS{}, ErrDiskFull
}
