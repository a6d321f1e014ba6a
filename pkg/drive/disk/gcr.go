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

// InvalidGCR marks 5 bit code words that do not belong to the GCR code.
const InvalidGCR = 0xFF

// 4 bit to 5 bit group code, chosen such that no code word has more than two
// consecutive zeros, and no more than eight consecutive ones can occur in a
// stream of code words
var gcr = [16]byte{
	0x0a, 0x0b, 0x12, 0x13, 0x0e, 0x0f, 0x16, 0x17,
	0x09, 0x19, 0x1a, 0x1b, 0x0d, 0x1d, 0x1e, 0x15,
}

var invgcr [32]byte

func init() {
	for ix := range invgcr {
		invgcr[ix] = InvalidGCR
	}
	for nibble, code := range gcr {
		invgcr[code] = byte(nibble)
	}
}

// Bin2GCR returns the 5 bit code word for the low nibble of value.
func Bin2GCR(value byte) byte {
	return gcr[value&0x0F]
}

// GCR2Bin returns the nibble for a 5 bit code word, or InvalidGCR.
func GCR2Bin(code byte) byte {
	return invgcr[code&0x1F]
}

//
func IsGCR(code byte) bool {
	return GCR2Bin(code) != InvalidGCR
}

// EncodeGCR writes the 10 bit group code of value starting at pos, high
// nibble first.
func (d *Disk) EncodeGCR(ht, pos int, value byte) {
	d.encodeNibble(ht, pos, value>>4)
	d.encodeNibble(ht, pos+5, value&0x0F)
}

// EncodeGCRBytes writes the group codes of all bytes in values starting at
// pos, and returns the number of bits written.
func (d *Disk) EncodeGCRBytes(ht, pos int, values []byte) int {
	for ix, v := range values {
		d.EncodeGCR(ht, pos+10*ix, v)
	}
	return 10 * len(values)
}

func (d *Disk) encodeNibble(ht, pos int, nibble byte) {
	code := gcr[nibble&0x0F]
	for ix := 0; ix < 5; ix++ {
		d.WriteBit(ht, pos+ix, code&(0x10>>ix) != 0)
	}
}

// DecodeGCR reads 10 bits starting at pos and returns the decoded byte. ok is
// false if either of the two code words is invalid, in which case invalid
// nibbles decode as 0.
func (d *Disk) DecodeGCR(ht, pos int) (value byte, ok bool) {
	var hi, lo byte
	for ix := 0; ix < 5; ix++ {
		hi = hi<<1 | d.ReadBit(ht, pos+ix)
		lo = lo<<1 | d.ReadBit(ht, pos+5+ix)
	}
	return decodeCodes(hi, lo)
}

func decodeCodes(hi, lo byte) (byte, bool) {
	nh, nl := GCR2Bin(hi), GCR2Bin(lo)
	ok := nh != InvalidGCR && nl != InvalidGCR
	if nh == InvalidGCR {
		nh = 0
	}
	if nl == InvalidGCR {
		nl = 0
	}
	return nh<<4 | nl, ok
}
