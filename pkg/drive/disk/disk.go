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
	"fmt"
)

// Disk is the simulated surface of a floppy disk. Each halftrack holds a
// bitstream of variable length, packed MSB first. All bit positions wrap
// around the halftrack's length, so the surface behaves like a rotating
// ring.
type Disk struct {
	data           [HalftrackCount + 1][MaxBytesOnTrack]byte
	length         [HalftrackCount + 1]int
	writeProtected bool
	modified       bool
}

// New returns a cleared disk.
func New() *Disk {
	d := &Disk{}
	d.Clear()
	return d
}

// Clear resets the disk to a factory fresh state. All bits are zero and all
// halftracks have their track's default length.
func (d *Disk) Clear() {
	for ht := 1; ht <= HalftrackCount; ht++ {
		d.ClearHalftrack(ht)
	}
	d.writeProtected = false
	d.modified = false
}

// ClearHalftrack zeros a halftrack and restores its default length.
func (d *Disk) ClearHalftrack(ht int) {
	d.check(ht)
	d.data[ht] = [MaxBytesOnTrack]byte{}
	d.length[ht] = DefaultLengthOfTrack(TrackOfHalftrack(ht))
}

// CopyFrom replaces the complete contents of this disk with those of src.
func (d *Disk) CopyFrom(src *Disk) {
	if src == nil || src == d {
		return
	}
	*d = *src
}

//
func (d *Disk) IsWriteProtected() bool {
	return d.writeProtected
}

//
func (d *Disk) SetWriteProtected(p bool) {
	d.writeProtected = p
}

//
func (d *Disk) IsModified() bool {
	return d.modified
}

//
func (d *Disk) SetModified(m bool) {
	d.modified = m
}

// LengthOfHalftrack returns the number of valid bits on halftrack ht.
func (d *Disk) LengthOfHalftrack(ht int) int {
	d.check(ht)
	return d.length[ht]
}

//
func (d *Disk) LengthOfTrack(t int) int {
	return d.LengthOfHalftrack(HalftrackOfTrack(t))
}

//
func (d *Disk) IsValidHeadPosition(ht, pos int) bool {
	return IsHalftrackNumber(ht) && pos >= 0 && pos < d.length[ht]
}

// Wrap maps an arbitrary bit position onto [0, length) of halftrack ht.
func (d *Disk) Wrap(ht, pos int) int {
	l := d.length[ht]
	if pos >= 0 && pos < l {
		return pos
	}
	pos %= l
	if pos < 0 {
		pos += l
	}
	return pos
}

// ReadBit returns the bit at position pos of halftrack ht as 0 or 1. A
// halftrack outside [1, 84] is a programming error and panics.
func (d *Disk) ReadBit(ht, pos int) byte {
	d.check(ht)
	pos = d.Wrap(ht, pos)
	if d.data[ht][pos/8]&(0x80>>(pos%8)) != 0 {
		return 1
	}
	return 0
}

// WriteBit sets or clears the bit at position pos of halftrack ht, and marks
// the disk as modified.
func (d *Disk) WriteBit(ht, pos int, bit bool) {
	d.check(ht)
	pos = d.Wrap(ht, pos)
	if bit {
		d.data[ht][pos/8] |= 0x80 >> (pos % 8)
	} else {
		d.data[ht][pos/8] &^= 0x80 >> (pos % 8)
	}
	d.modified = true
}

// WriteBits writes count copies of bit starting at pos.
func (d *Disk) WriteBits(ht, pos int, bit bool, count int) {
	for ix := 0; ix < count; ix++ {
		d.WriteBit(ht, pos+ix, bit)
	}
}

// WriteByteAt writes the 8 bits of b MSB first starting at pos.
func (d *Disk) WriteByteAt(ht, pos int, b byte) {
	for ix := 0; ix < 8; ix++ {
		d.WriteBit(ht, pos+ix, b&(0x80>>ix) != 0)
	}
}

// WriteGap writes n gap bytes (0x55) starting at pos.
func (d *Disk) WriteGap(ht, pos, n int) {
	for ix := 0; ix < n; ix++ {
		d.WriteByteAt(ht, pos+8*ix, 0x55)
	}
}

// ReadByteAt reads 8 bits starting at pos, MSB first.
func (d *Disk) ReadByteAt(ht, pos int) byte {
	var b byte
	for ix := 0; ix < 8; ix++ {
		b = b<<1 | d.ReadBit(ht, pos+ix)
	}
	return b
}

// Halftrack returns a copy of the bytes holding the valid bits of halftrack
// ht, and the number of valid bits.
func (d *Disk) Halftrack(ht int) ([]byte, int, error) {
	if !IsHalftrackNumber(ht) {
		return nil, 0, ErrInvalidHalftrack
	}
	l := d.length[ht]
	ret := make([]byte, (l+7)/8)
	copy(ret, d.data[ht][:])
	return ret, l, nil
}

// SetHalftrack installs a raw bitstream of given bit length on halftrack ht.
func (d *Disk) SetHalftrack(ht int, data []byte, bits int) error {
	if !IsHalftrackNumber(ht) {
		return ErrInvalidHalftrack
	}
	if bits <= 0 || bits > MaxBitsOnTrack || (bits+7)/8 > len(data) {
		return fmt.Errorf("%w: halftrack %d, %d bits", ErrTrackTooLong, ht, bits)
	}
	d.data[ht] = [MaxBytesOnTrack]byte{}
	copy(d.data[ht][:], data[:(bits+7)/8])
	d.length[ht] = bits
	return nil
}

// IsHalftrackEmpty reports whether all bits on halftrack ht are zero.
func (d *Disk) IsHalftrackEmpty(ht int) bool {
	d.check(ht)
	for _, b := range d.data[ht] {
		if b != 0 {
			return false
		}
	}
	return true
}

//
func (d *Disk) IsTrackEmpty(t int) bool {
	return d.IsHalftrackEmpty(HalftrackOfTrack(t))
}

// NonEmptyHalftracks returns the number of halftracks holding data.
func (d *Disk) NonEmptyHalftracks() int {
	ret := 0
	for ht := 1; ht <= HalftrackCount; ht++ {
		if !d.IsHalftrackEmpty(ht) {
			ret++
		}
	}
	return ret
}

// HighestNonEmptyTrack returns 0 for a blank disk.
func (d *Disk) HighestNonEmptyTrack() int {
	for t := TrackCount; t > 0; t-- {
		if !d.IsTrackEmpty(t) {
			return t
		}
	}
	return 0
}

func (d *Disk) check(ht int) {
	if !IsHalftrackNumber(ht) {
		panic(fmt.Sprintf("invalid halftrack %d", ht))
	}
}
