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

package format

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

const (
	g64Signature  = "GCR-1541"
	g64Version    = 0
	g64HeaderSize = 12
)

var ErrInvalidG64 = errors.New("invalid G64 image")

// G64 holds the raw GCR bitstream of each halftrack, so it preserves copy
// protection and other non-standard formatting that D64 cannot represent.
type G64 struct{}

//
func NewG64() *G64 {
	return &G64{}
}

//
func (g *G64) Read(in io.Reader) (*disk.Disk, error) {

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	if len(data) < g64HeaderSize || string(data[:8]) != g64Signature {
		return nil, fmt.Errorf("%w: missing signature", ErrInvalidG64)
	}

	halftracks := int(data[9])
	if halftracks > disk.HalftrackCount {
		return nil, fmt.Errorf("%w: %d halftracks", ErrInvalidG64, halftracks)
	}
	if len(data) < g64HeaderSize+8*halftracks {
		return nil, fmt.Errorf("%w: truncated track table", ErrInvalidG64)
	}

	ret := disk.New()
	offsets := data[g64HeaderSize:]

	for ix := 0; ix < halftracks; ix++ {

		off := int(binary.LittleEndian.Uint32(offsets[4*ix:]))
		if off == 0 {
			continue
		}
		if off+2 > len(data) {
			return nil, fmt.Errorf("%w: halftrack %d beyond end of file",
				ErrInvalidG64, ix+1)
		}

		l := int(binary.LittleEndian.Uint16(data[off:]))
		if l == 0 {
			continue
		}
		if l > disk.MaxBytesOnTrack || off+2+l > len(data) {
			return nil, fmt.Errorf("%w: halftrack %d has invalid length %d",
				ErrInvalidG64, ix+1, l)
		}

		if err := ret.SetHalftrack(ix+1, data[off+2:off+2+l], 8*l); err != nil {
			return nil, err
		}
	}

	log.WithField("halftracks", ret.NonEmptyHalftracks()).Debug("G64 read")
	return ret, nil
}

//
func (g *G64) Write(d *disk.Disk, out io.Writer) error {

	var buf bytes.Buffer

	buf.WriteString(g64Signature)
	buf.WriteByte(g64Version)
	buf.WriteByte(disk.HalftrackCount)
	binary.Write(&buf, binary.LittleEndian, uint16(disk.MaxBytesOnTrack))

	offsets := make([]uint32, disk.HalftrackCount)
	speeds := make([]uint32, disk.HalftrackCount)
	pos := g64HeaderSize + 8*disk.HalftrackCount

	for ht := 1; ht <= disk.HalftrackCount; ht++ {
		speeds[ht-1] = uint32(disk.SpeedZoneOfHalftrack(ht))
		if !d.IsHalftrackEmpty(ht) {
			offsets[ht-1] = uint32(pos)
			pos += 2 + disk.MaxBytesOnTrack
		}
	}

	binary.Write(&buf, binary.LittleEndian, offsets)
	binary.Write(&buf, binary.LittleEndian, speeds)

	for ht := 1; ht <= disk.HalftrackCount; ht++ {
		if offsets[ht-1] == 0 {
			continue
		}
		data, bits, err := d.Halftrack(ht)
		if err != nil {
			return err
		}
		binary.Write(&buf, binary.LittleEndian, uint16((bits+7)/8))
		track := make([]byte, disk.MaxBytesOnTrack)
		copy(track, data)
		buf.Write(track)
	}

	_, err := buf.WriteTo(out)
	return err
}
