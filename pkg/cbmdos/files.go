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
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// FileType is the type byte of a directory entry.
type FileType byte

const (
	DEL FileType = 0x80
	SEQ FileType = 0x81
	PRG FileType = 0x82
	USR FileType = 0x83
	REL FileType = 0x84

	typeMask   = 0x07
	flagClosed = 0x80
	flagLocked = 0x40
)

var typeNames = []string{"DEL", "SEQ", "PRG", "USR", "REL"}

//
func (t FileType) String() string {
	ix := int(t & typeMask)
	name := "???"
	if ix < len(typeNames) {
		name = typeNames[ix]
	}
	if t&flagClosed == 0 {
		name = "*" + name
	}
	if t&flagLocked != 0 {
		name += "<"
	}
	return name
}

// Collection is a set of files that can be written onto a fresh disk.
type Collection interface {
	Count() int
	Item(ix int) File
}

//
type File struct {
	Name string
	Type FileType
	Data []byte
}

// Files is a Collection held in memory.
type Files []File

//
func (f Files) Count() int {
	return len(f)
}

//
func (f Files) Item(ix int) File {
	return f[ix]
}

// PRGFile returns a collection holding a single program file named after
// path, without extension.
func PRGFile(path string, data []byte) Files {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Files{{Name: name, Type: PRG, Data: data}}
}

// NewBlankImage returns a formatted 35 track image.
func NewBlankImage(name, id string) (*Image, error) {
	img, err := NewImage(35)
	if err != nil {
		return nil, err
	}
	if err := img.format(name, id); err != nil {
		return nil, err
	}
	return img, nil
}

// FromCollection returns a formatted image holding all files of c.
func FromCollection(name, id string, c Collection) (*Image, error) {

	img, err := NewBlankImage(name, id)
	if err != nil {
		return nil, err
	}

	for ix := 0; ix < c.Count(); ix++ {
		f := c.Item(ix)
		if err := img.AddFile(f.Name, f.Type, f.Data); err != nil {
			return nil, fmt.Errorf("cannot add file '%s': %v", f.Name, err)
		}
	}

	log.WithFields(log.Fields{
		"name":  name,
		"files": c.Count(),
		"free":  img.FreeBlocks(),
	}).Debug("disk built from collection")

	return img, nil
}

// AddFile writes data into a chain of blocks and creates a directory entry
// for it.
func (img *Image) AddFile(name string, typ FileType, data []byte) error {

	blocks := (len(data) + 253) / 254
	if blocks == 0 {
		blocks = 1
	}
	if blocks > img.FreeBlocks() {
		return ErrDiskFull
	}

	entry, err := img.freeDirEntry()
	if err != nil {
		return err
	}

	var first, prev TS
	for b := 0; b < blocks; b++ {

		ts, err := img.allocateData(prev)
		if err != nil {
			return err
		}
		if b == 0 {
			first = ts
		} else {
			p := img.sector(prev.T, prev.S)
			p[0], p[1] = byte(ts.T), byte(ts.S)
		}

		chunk := data[b*254:]
		if len(chunk) > 254 {
			chunk = chunk[:254]
		}
		sec := img.sector(ts.T, ts.S)
		copy(sec[2:], chunk)
		// last block: no next track, and index of last used byte
		sec[0], sec[1] = 0, byte(len(chunk)+1)

		prev = ts
	}

	entry[0] = byte(typ | flagClosed)
	entry[1], entry[2] = byte(first.T), byte(first.S)
	copy(entry[3:19], petsciiName(name, 16))
	entry[28], entry[29] = byte(blocks), byte(blocks>>8)

	return nil
}

// freeDirEntry returns the 30 bytes following the link bytes of an unused
// directory entry, extending the directory on track 18 if necessary.
func (img *Image) freeDirEntry() ([]byte, error) {

	ts := TS{bamTrack, 1}
	visited := map[TS]bool{}

	for {
		if visited[ts] {
			return nil, ErrBadChain
		}
		visited[ts] = true

		sec := img.Sector(ts.T, ts.S)
		if sec == nil {
			return nil, fmt.Errorf("%w: directory at %v", ErrBadChain, ts)
		}
		for ix := 0; ix < 8; ix++ {
			if e := sec[32*ix+2 : 32*ix+32]; e[0] == 0 {
				return e, nil
			}
		}

		if sec[0] == 0 {
			next, ok := img.allocateOnTrack(bamTrack, ts.S+dirInterleave)
			if !ok {
				return nil, ErrDirectoryFull
			}
			sec[0], sec[1] = byte(next.T), byte(next.S)
			n := img.sector(next.T, next.S)
			for ix := range n {
				n[ix] = 0
			}
			n[0], n[1] = 0, 0xFF
		}
		ts = TS{int(sec[0]), int(sec[1])}
	}
}

// ReadFile follows the block chain starting at first and returns the file's
// data.
func (img *Image) ReadFile(first TS) ([]byte, error) {

	var ret []byte
	visited := map[TS]bool{}

	for ts := first; ; {
		if visited[ts] {
			return nil, fmt.Errorf("%w: loop at %v", ErrBadChain, ts)
		}
		visited[ts] = true

		sec := img.Sector(ts.T, ts.S)
		if sec == nil {
			return nil, fmt.Errorf("%w: invalid block %v", ErrBadChain, ts)
		}
		if sec[0] == 0 {
			last := int(sec[1])
			if last < 1 {
				last = 1
			}
			return append(ret, sec[2:last+1]...), nil
		}
		ret = append(ret, sec[2:]...)
		ts = TS{int(sec[0]), int(sec[1])}
	}
}

// petsciiName converts s into an upper case name padded with shifted spaces.
func petsciiName(s string, length int) []byte {
	ret := make([]byte, length)
	for ix := range ret {
		ret[ix] = padding
	}
	ix := 0
	for _, r := range strings.ToUpper(s) {
		if ix >= length {
			break
		}
		if r < 0x20 || r > 0x5F {
			r = '?'
		}
		ret[ix] = byte(r)
		ix++
	}
	return ret
}

func asciiName(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c == padding {
			break
		}
		if c < 0x20 || c > 0x7E {
			c = '?'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
