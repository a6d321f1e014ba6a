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
	"fmt"
	"io"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// DirEntry is one file listed in the directory.
type DirEntry struct {
	Name   string   `json:"name"`
	Type   FileType `json:"type"`
	First  TS       `json:"first"`
	Blocks int      `json:"blocks"`
}

// Directory is the parsed directory of a disk.
type Directory struct {
	Name    string     `json:"name"`
	ID      string     `json:"id"`
	Entries []DirEntry `json:"entries"`
	Free    int        `json:"free"`
}

// Directory parses BAM and directory chain.
func (img *Image) Directory() (*Directory, error) {

	bam := img.sector(bamTrack, 0)
	ret := &Directory{
		Name: asciiName(bam[0x90:0xA0]),
		ID:   asciiName(bam[0xA2:0xA4]),
		Free: img.FreeBlocks(),
	}

	ts := TS{int(bam[0]), int(bam[1])}
	visited := map[TS]bool{}

	for ts.T != 0 {
		if visited[ts] {
			return ret, fmt.Errorf("%w: directory loop at %v", ErrBadChain, ts)
		}
		visited[ts] = true

		sec := img.Sector(ts.T, ts.S)
		if sec == nil {
			return ret, fmt.Errorf("%w: directory at %v", ErrBadChain, ts)
		}

		for ix := 0; ix < 8; ix++ {
			e := sec[32*ix : 32*ix+32]
			if e[2] == 0 {
				continue
			}
			ret.Entries = append(ret.Entries, DirEntry{
				Name:   asciiName(e[5:21]),
				Type:   FileType(e[2]),
				First:  TS{int(e[3]), int(e[4])},
				Blocks: int(e[30]) | int(e[31])<<8,
			})
		}

		ts = TS{int(sec[0]), int(sec[1])}
	}

	return ret, nil
}

// List writes the directory the way a C64 shows it.
func (d *Directory) List(w io.Writer) {
	fmt.Fprintf(w, "0 \"%-16s\" %-2s %s\n", d.Name, d.ID, dosVersion)
	for _, e := range d.Entries {
		fmt.Fprintf(w, "%-5d%-19s%s\n", e.Blocks, fmt.Sprintf("\"%s\"", e.Name),
			e.Type)
	}
	fmt.Fprintf(w, "%d BLOCKS FREE.\n", d.Free)
}

// DiskName reads disk name and ID from the BAM of d, without decoding the
// whole disk.
func DiskName(d *disk.Disk) (name, id string, err error) {
	buf := make([]byte, disk.NumberOfSectorsInTrack(bamTrack)*disk.SectorSize)
	if _, _, err = d.DecodeTrack(bamTrack, buf); err != nil {
		return "", "", err
	}
	return asciiName(buf[0x90:0xA0]), asciiName(buf[0xA2:0xA4]), nil
}
