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
	"errors"
	"io"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// largest program that fits into the C64's memory
const maxPRGSize = 0x10000 + 2

// PRG reads a single program file and puts it onto a freshly formatted disk.
type PRG struct {
	Name string
}

//
func NewPRG(name string) *PRG {
	return &PRG{Name: name}
}

//
func (p *PRG) Read(in io.Reader) (*disk.Disk, error) {

	data, err := io.ReadAll(io.LimitReader(in, maxPRGSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPRGSize {
		return nil, errors.New("program file too large")
	}

	name := p.Name
	if name == "" {
		name = "program"
	}

	img, err := cbmdos.FromCollection(name, "00", cbmdos.PRGFile(name, data))
	if err != nil {
		return nil, err
	}

	ret := disk.New()
	if err := ret.Encode(img); err != nil {
		return nil, err
	}
	return ret, nil
}

//
func (p *PRG) Write(d *disk.Disk, out io.Writer) error {
	return errors.New("PRG format can only be read")
}
