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
	"bufio"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// Reader interface for reading in a disk
type Reader interface {
	Read(in io.Reader) (*disk.Disk, error)
}

// Writer interface for writing out a disk
type Writer interface {
	Write(d *disk.Disk, out io.Writer) error
}

// ReaderWriter interface for reading/writing a disk
type ReaderWriter interface {
	Reader
	Writer
}

//
func NewFormat(typ string) (ReaderWriter, error) {

	switch typ {

	case "d64":
		return NewD64(), nil

	case "g64":
		return NewG64(), nil

	case "prg":
		return NewPRG(""), nil

	default:
		return nil, fmt.Errorf("unsupported disk format: %s", typ)
	}
}

// ReadImage reads a disk image of type typ from r, decompressing it first if
// compressor is set. If r is an archive that names its entry, the entry's
// name and type take precedence. r is closed.
func ReadImage(r io.ReadCloser, name, typ, compressor string) (*disk.Disk, error) {

	ir, err := NewImageReader(r, compressor)
	if err != nil {
		r.Close()
		return nil, err
	}
	defer ir.Close()

	if ir.Type() != "" {
		typ = ir.Type()
	}
	if ir.Name() != "" {
		name = ir.Name()
	}

	fm, err := NewFormat(typ)
	if err != nil {
		return nil, err
	}
	if p, ok := fm.(*PRG); ok {
		p.Name = name
	}

	d, err := fm.Read(ir)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s image '%s': %v", typ, name, err)
	}

	log.WithFields(log.Fields{
		"name":       name,
		"type":       typ,
		"compressor": ir.Compressor(),
	}).Debug("disk image read")

	return d, nil
}

// Load reads the disk image at path, determining format and compression
// from the file name.
func Load(path string) (*disk.Disk, error) {

	name, typ, compressor := SplitNameTypeCompressor(path)
	if typ == "" && compressor == "" {
		return nil, fmt.Errorf("cannot determine image type of '%s'", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	return ReadImage(f, name, typ, compressor)
}

// Store writes d to path in the format indicated by the file extension. The
// image is first written to a temporary file, which then replaces path.
func Store(d *disk.Disk, path string) error {

	_, typ, compressor := SplitNameTypeCompressor(path)
	if compressor != "" {
		return fmt.Errorf("writing compressed images is not supported")
	}

	fm, err := NewFormat(typ)
	if err != nil {
		return err
	}

	tmp := fmt.Sprintf("%s_", path)
	fd, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(fd)
	err = fm.Write(d, out)
	if err == nil {
		err = out.Flush()
	}
	if cerr := fd.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
