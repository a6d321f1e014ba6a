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
	"fmt"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

var (
	ErrInvalidImageSize = errors.New("invalid D64 image size")
	ErrInvalidSector    = errors.New("invalid track/sector")
	ErrDiskFull         = errors.New("disk full")
	ErrDirectoryFull    = errors.New("directory full")
	ErrBadChain         = errors.New("broken block chain")
)

type layout struct {
	tracks int
	errors bool
}

// valid D64 sizes, with and without trailing error info
var imageSizes = map[int]layout{
	174848: {35, false},
	175531: {35, true},
	196608: {40, false},
	197376: {40, true},
	205312: {42, false},
	206114: {42, true},
}

// Image is a sector-linear disk image in D64 layout, optionally with one
// error code per sector.
type Image struct {
	tracks int
	data   []byte
	errors []disk.ErrorCode
}

// NewImage returns an all-zero image with the given number of tracks, 35,
// 40 or 42.
func NewImage(tracks int) (*Image, error) {
	if tracks != 35 && tracks != 40 && tracks != 42 {
		return nil, fmt.Errorf("unsupported number of tracks: %d", tracks)
	}
	return &Image{
		tracks: tracks,
		data:   make([]byte, disk.NumberOfSectors(tracks)*disk.SectorSize),
	}, nil
}

// ParseImage interprets data as a D64 image. The image takes ownership of
// data.
func ParseImage(data []byte) (*Image, error) {

	l, ok := imageSizes[len(data)]
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidImageSize, len(data))
	}

	sectors := disk.NumberOfSectors(l.tracks)
	img := &Image{tracks: l.tracks, data: data[:sectors*disk.SectorSize]}

	if l.errors {
		img.errors = make([]disk.ErrorCode, sectors)
		for ix, e := range data[sectors*disk.SectorSize:] {
			img.errors[ix] = disk.ErrorCode(e)
		}
	}

	return img, nil
}

// Decode reads all sectors from the GCR bitstream on d. Sectors that could
// not be read are recorded in the image's error info.
func Decode(d *disk.Disk) (*Image, error) {

	size, _, err := d.DecodeDisk(nil)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	_, errs, err := d.DecodeDisk(buf)
	if err != nil {
		return nil, err
	}

	img := &Image{tracks: d.DecodedTracks(), data: buf}
	for _, e := range errs {
		if !e.OK() {
			img.errors = errs
			break
		}
	}
	return img, nil
}

// Bytes returns the image in D64 file layout. Error info is appended if any
// error codes are set.
func (img *Image) Bytes() []byte {
	ret := append([]byte(nil), img.data...)
	for _, e := range img.errors {
		ret = append(ret, byte(e))
	}
	return ret
}

//
func (img *Image) HasErrors() bool {
	for _, e := range img.errors {
		if !e.OK() {
			return true
		}
	}
	return false
}

//
func (img *Image) NumberOfTracks() int {
	return img.tracks
}

// DiskID returns the two ID characters stored in the BAM.
func (img *Image) DiskID() (byte, byte) {
	bam := img.sector(bamTrack, 0)
	return bam[0xA2], bam[0xA3]
}

//
func (img *Image) Sector(t, s int) []byte {
	if t > img.tracks {
		return nil
	}
	ix, err := disk.SectorIndex(t, s)
	if err != nil {
		return nil
	}
	return img.data[ix*disk.SectorSize : (ix+1)*disk.SectorSize]
}

//
func (img *Image) ErrorCode(t, s int) disk.ErrorCode {
	if img.errors == nil || t > img.tracks {
		return disk.DiskOK
	}
	ix, err := disk.SectorIndex(t, s)
	if err != nil || img.errors[ix].OK() {
		return disk.DiskOK
	}
	return img.errors[ix]
}

// Errors returns all t/s pairs with an error code other than OK.
func (img *Image) Errors() map[TS]disk.ErrorCode {
	ret := make(map[TS]disk.ErrorCode)
	for t := 1; t <= img.tracks; t++ {
		for s := 0; s < disk.NumberOfSectorsInTrack(t); s++ {
			if e := img.ErrorCode(t, s); !e.OK() {
				ret[TS{T: t, S: s}] = e
			}
		}
	}
	return ret
}

// sector panics for invalid t/s, and is only used with checked or constant
// arguments.
func (img *Image) sector(t, s int) []byte {
	sec := img.Sector(t, s)
	if sec == nil {
		panic(fmt.Sprintf("invalid sector %d/%d", t, s))
	}
	return sec
}

// TS is a track/sector pair. Tracks are 1-indexed, sectors 0-indexed.
type TS struct {
	T, S int
}

//
func (ts TS) String() string {
	return fmt.Sprintf("%d/%d", ts.T, ts.S)
}
