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

package control

import (
	"fmt"
	"strings"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/drive"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

//
type Status struct {
	Drives []*DriveStatus `json:"drives"`
	Frames uint64         `json:"frames"`
	Warp   bool           `json:"warp"`
}

//
func (s *Status) Add(d *DriveStatus) {
	s.Drives = append(s.Drives, d)
}

//
func (s *Status) String() string {
	var sb strings.Builder
	sb.WriteString("\nDRIVE STATUS           DISK                   TRACK FLAGS\n")
	for _, d := range s.Drives {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// DriveStatus is the drive info plus name and ID of the inserted disk.
type DriveStatus struct {
	drive.Info
	Name string `json:"name,omitempty"`
	ID   string `json:"id,omitempty"`
}

//
func newDriveStatus(drv *drive.Drive) *DriveStatus {
	ret := &DriveStatus{Info: *drv.Info()}
	if ret.HasDisk {
		drv.WithDisk(func(dsk *disk.Disk) error {
			var err error
			ret.Name, ret.ID, err = cbmdos.DiskName(dsk)
			return err
		})
	}
	return ret
}

//
func (d *DriveStatus) String() string {

	if !d.Active {
		return fmt.Sprintf("  %-3d <inactive>", d.Device)
	}

	name := "-"
	if d.HasDisk {
		name = fmt.Sprintf("\"%s\" %s", d.Name, d.ID)
	}

	motor := '-'
	if d.Spinning {
		motor = 'm'
	}

	led := '-'
	if d.RedLED {
		led = 'l'
	}

	write := 'w'
	if d.WriteProtected {
		write = 'r'
	}

	mod := ' '
	if d.Modified {
		mod = '*'
	}

	return fmt.Sprintf("  %-3d %-16s %-22s %5.1f %c%c%c%c",
		d.Device, d.Status, name, d.Track(), motor, led, write, mod)
}

// Change is sent to watchers whenever a drive reports something.
type Change struct {
	Message drive.Message  `json:"message"`
	Drives  []*DriveStatus `json:"drives"`
}
