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
	"math"

	log "github.com/sirupsen/logrus"
)

// Source is a sector-linear file system image that can be encoded onto a
// disk, e.g. the contents of a D64 file.
type Source interface {
	NumberOfTracks() int
	DiskID() (id1, id2 byte)
	// Sector returns the 256 bytes of sector s on track t. Shorter slices
	// are padded with zeros.
	Sector(t, s int) []byte
	// ErrorCode returns the error to reproduce for sector s on track t, or
	// DiskOK.
	ErrorCode(t, s int) ErrorCode
}

const (
	syncBits       = 40
	headerGapBytes = 9
	// sync + header + gap + sync + data block, without tail gap
	sectorBytes = 5 + 10 + headerGapBytes + 5 + 325
)

// EncodeOption changes the track layout Encode produces.
type EncodeOption func(*encodeConfig)

type encodeConfig struct {
	stagger func(t int) float64
}

// WithStagger moves the first bit of each track t to the fraction stagger(t)
// of the track's length, e.g. 0.5 for the opposite side of the disk. Only
// the fractional part is used.
func WithStagger(stagger func(t int) float64) EncodeOption {
	return func(c *encodeConfig) {
		c.stagger = stagger
	}
}

// Encode clears the disk and writes all tracks of src as GCR bitstreams.
// Without options, sector 0 of each track starts at bit position 0.
func (d *Disk) Encode(src Source, opts ...EncodeOption) error {

	tracks := src.NumberOfTracks()
	if tracks < 1 {
		return fmt.Errorf("%w: source has %d tracks", ErrInvalidTrack, tracks)
	}
	if tracks > TrackCount {
		return fmt.Errorf("%w: %d", ErrTooManyTracks, tracks)
	}

	cfg := &encodeConfig{}
	for _, o := range opts {
		o(cfg)
	}

	d.Clear()

	for t := 1; t <= tracks; t++ {
		even, odd := TailGaps(t)
		start := 0
		if cfg.stagger != nil {
			f := cfg.stagger(t)
			f -= math.Floor(f)
			start = int(f * float64(trackBits(t, even, odd)))
		}
		if _, err := d.EncodeTrack(src, t, even, odd, start); err != nil {
			return err
		}
	}

	d.modified = false
	log.WithField("tracks", tracks).Debug("disk encoded")
	return nil
}

// trackBits is the length of track t when encoded with the given tail gaps.
func trackBits(t, gapEven, gapOdd int) int {
	sectors := NumberOfSectorsInTrack(t)
	return 8 * (sectors*sectorBytes + (sectors+1)/2*gapEven + sectors/2*gapOdd)
}

// EncodeTrack writes all sectors of track t starting at bit position start.
// Even sectors are followed by gapEven, odd sectors by gapOdd tail gap bytes.
// The length of the track's halftrack, and of the halftrack above it, is set
// to the number of bits written, which is returned.
func (d *Disk) EncodeTrack(src Source, t, gapEven, gapOdd, start int) (int, error) {

	if !IsTrackNumber(t) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTrack, t)
	}

	sectors := NumberOfSectorsInTrack(t)
	total := trackBits(t, gapEven, gapOdd)
	if total > MaxBitsOnTrack {
		return 0, fmt.Errorf("%w: track %d needs %d bits", ErrTrackTooLong, t, total)
	}

	ht := HalftrackOfTrack(t)
	d.data[ht] = [MaxBytesOnTrack]byte{}
	d.length[ht] = total
	if ht < HalftrackCount {
		d.data[ht+1] = [MaxBytesOnTrack]byte{}
		d.length[ht+1] = total
	}

	pos := start
	for s := 0; s < sectors; s++ {
		gap := gapEven
		if s%2 == 1 {
			gap = gapOdd
		}
		n, err := d.EncodeSector(src, t, s, pos, gap)
		if err != nil {
			return 0, err
		}
		pos += n
	}

	log.WithFields(log.Fields{"track": t, "bits": total}).Trace("track encoded")
	return total, nil
}

// EncodeSector writes sector s of track t starting at bit position start,
// followed by gap tail gap bytes, and returns the number of bits written.
// The error code src reports for the sector is reproduced on the medium.
func (d *Disk) EncodeSector(src Source, t, s, start, gap int) (int, error) {

	if !IsValidTrackSectorPair(t, s) {
		return 0, fmt.Errorf("%w: %d/%d", ErrInvalidSector, t, s)
	}

	ht := HalftrackOfTrack(t)
	code := src.ErrorCode(t, s)
	id1, id2 := src.DiskID()
	pos := start

	d.WriteBits(ht, pos, code != NoSyncSequence, syncBits)
	pos += syncBits

	var mark byte = 0x08
	if code == HeaderBlockNotFound {
		mark = 0x00
	}
	if code == DiskIDMismatch {
		id1 ^= 0xFF
		id2 ^= 0xFF
	}
	checksum := id1 ^ id2 ^ byte(t) ^ byte(s)
	if code == HeaderBlockChecksum {
		checksum ^= 0xFF
	}
	pos += d.EncodeGCRBytes(ht, pos,
		[]byte{mark, checksum, byte(s), byte(t), id2, id1, 0x0F, 0x0F})

	d.WriteGap(ht, pos, headerGapBytes)
	pos += 8 * headerGapBytes

	d.WriteBits(ht, pos, code != NoSyncSequence, syncBits)
	pos += syncBits

	block := make([]byte, SectorSize+4)
	block[0] = 0x07
	if code == DataBlockNotFound {
		block[0] = 0x00
	}
	copy(block[1:SectorSize+1], src.Sector(t, s))
	checksum = 0
	for _, b := range block[1 : SectorSize+1] {
		checksum ^= b
	}
	if code == DataBlockChecksum {
		checksum ^= 0xFF
	}
	block[SectorSize+1] = checksum
	pos += d.EncodeGCRBytes(ht, pos, block)

	d.WriteGap(ht, pos, gap)
	pos += 8 * gap

	return pos - start, nil
}
