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

	log "github.com/sirupsen/logrus"
)

// DecodedTracks returns the number of tracks a decoded image of this disk
// has: 35, 40 or 42, depending on the highest track holding data.
func (d *Disk) DecodedTracks() int {
	switch h := d.HighestNonEmptyTrack(); {
	case h <= 35:
		return 35
	case h <= 40:
		return 40
	}
	return 42
}

// DecodeTrack decodes all sectors of track t into dest, and returns the
// number of bytes written and the per-sector error codes. With a nil dest,
// only the size is determined. Sectors that cannot be read are zero filled.
func (d *Disk) DecodeTrack(t int, dest []byte) (int, []ErrorCode, error) {
	return d.decodeTrack(t, dest, d.referenceID())
}

func (d *Disk) decodeTrack(t int, dest []byte, id *DiskID) (int, []ErrorCode,
	error) {

	if !IsTrackNumber(t) {
		return 0, nil, fmt.Errorf("%w: %d", ErrInvalidTrack, t)
	}

	size := NumberOfSectorsInTrack(t) * SectorSize
	if dest == nil {
		return size, nil, nil
	}
	if len(dest) < size {
		return 0, nil, fmt.Errorf("%w: track %d needs %d bytes", ErrShortBuffer,
			t, size)
	}

	info, err := d.AnalyzeTrack(t, id)
	if err != nil {
		return 0, nil, err
	}

	for s := range info.Sectors {
		copy(dest[s*SectorSize:], info.Sectors[s].Data)
	}

	if !info.OK() {
		log.WithField("track", t).Debugf("track has errors: %v", info.Errors())
	}

	return size, info.Errors(), nil
}

// DecodeDisk decodes the disk into a sector-linear image and returns the
// number of bytes written and the per-sector error codes, indexed like the
// sectors in the image. With a nil dest, only the size is determined.
func (d *Disk) DecodeDisk(dest []byte) (int, []ErrorCode, error) {

	tracks := d.DecodedTracks()
	size := NumberOfSectors(tracks) * SectorSize

	if dest == nil {
		return size, nil, nil
	}
	if len(dest) < size {
		return 0, nil, fmt.Errorf("%w: disk needs %d bytes", ErrShortBuffer, size)
	}

	id := d.referenceID()
	var errs []ErrorCode
	pos := 0

	for t := 1; t <= tracks; t++ {
		n, e, err := d.decodeTrack(t, dest[pos:], id)
		if err != nil {
			return 0, nil, err
		}
		pos += n
		errs = append(errs, e...)
	}

	return pos, errs, nil
}

// referenceID determines the disk ID the way the drive does when
// initializing a disk, from the header of sector 0 on track 18. Returns nil
// if that header cannot be read.
func (d *Disk) referenceID() *DiskID {

	info, err := d.AnalyzeTrack(18, nil)
	if err != nil || len(info.Sectors) == 0 {
		return nil
	}

	switch h := info.Sectors[0]; h.Err {
	case HeaderBlockNotFound, NoSyncSequence, HeaderBlockChecksum:
		return nil
	default:
		return &DiskID{ID1: h.ID1, ID2: h.ID2}
	}
}
