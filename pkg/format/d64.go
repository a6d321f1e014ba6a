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
	"fmt"
	"io"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// largest D64 variant, 42 tracks with error info
const maxD64Size = 206114

//
type D64 struct{}

//
func NewD64() *D64 {
	return &D64{}
}

// Read encodes a D64 image onto a fresh disk. Sector errors recorded in the
// image's error info are reproduced on the disk.
func (d *D64) Read(in io.Reader) (*disk.Disk, error) {

	data, err := io.ReadAll(io.LimitReader(in, maxD64Size+1))
	if err != nil {
		return nil, err
	}

	img, err := cbmdos.ParseImage(data)
	if err != nil {
		return nil, err
	}

	ret := disk.New()
	if err := ret.Encode(img); err != nil {
		return nil, err
	}

	return ret, nil
}

// Write decodes dsk and writes the result as D64. Error info is appended if
// any sector could not be read.
func (d *D64) Write(dsk *disk.Disk, out io.Writer) error {

	img, err := cbmdos.Decode(dsk)
	if err != nil {
		return err
	}

	data := img.Bytes()
	n, err := out.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("short write: %d bytes", n)
	}
	return nil
}
