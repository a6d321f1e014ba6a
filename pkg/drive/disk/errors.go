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

var (
	ErrInvalidTrack     = errors.New("invalid track number")
	ErrInvalidHalftrack = errors.New("invalid halftrack number")
	ErrInvalidSector    = errors.New("invalid track/sector pair")
	ErrTrackTooLong     = errors.New("track data exceeds maximum track size")
	ErrTooManyTracks    = errors.New("source has too many tracks")
	ErrShortBuffer      = errors.New("destination buffer too small")
)

// ErrorCode is the per-sector result of decoding a GCR bitstream. The values
// match the error info bytes found at the end of D64 images.
type ErrorCode byte

const (
	DiskOK              ErrorCode = 0x1
	HeaderBlockNotFound ErrorCode = 0x2
	NoSyncSequence      ErrorCode = 0x3
	DataBlockNotFound   ErrorCode = 0x4
	DataBlockChecksum   ErrorCode = 0x5
	WriteVerify         ErrorCode = 0x7
	WriteProtectOn      ErrorCode = 0x8
	HeaderBlockChecksum ErrorCode = 0x9
	WriteError          ErrorCode = 0xA
	DiskIDMismatch      ErrorCode = 0xB
	DriveNotReady       ErrorCode = 0xF
)

//
func (e ErrorCode) String() string {
	switch e {
	case 0, DiskOK:
		return "ok"
	case HeaderBlockNotFound:
		return "header block not found"
	case NoSyncSequence:
		return "no sync sequence"
	case DataBlockNotFound:
		return "data block not found"
	case DataBlockChecksum:
		return "data block checksum error"
	case WriteVerify:
		return "write verify error"
	case WriteProtectOn:
		return "write protect on"
	case HeaderBlockChecksum:
		return "header block checksum error"
	case WriteError:
		return "write error"
	case DiskIDMismatch:
		return "disk ID mismatch"
	case DriveNotReady:
		return "drive not ready"
	}
	return fmt.Sprintf("unknown error 0x%02x", byte(e))
}

// OK reports whether the code denotes a correctly read sector. 0 is treated
// as OK since some D64 tools write it for unused error slots.
func (e ErrorCode) OK() bool {
	return e == 0 || e == DiskOK
}
