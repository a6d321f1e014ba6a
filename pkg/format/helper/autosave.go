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

package helper

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
	"github.com/xelalexv/gcrdrive/pkg/format"
)

//
const FlagModified = 0x01
const FlagWriteProtected = 0x02
const AutoSaveVersion = 1

const ixVersion = 0
const ixFlags = 1

// auto-saves are always G64, so that no formatting is lost
const autoSaveFormat = "g64"

// drive state including bit precise disk contents
const stateFile = "state"

var baseDir string

// SetBaseDir changes the folder under which auto-saves are kept. Default is
// .gcrdrive in the user's home.
func SetBaseDir(dir string) {
	baseDir = dir
}

//
func AutoSave(drive int, d *disk.Disk) error {

	if d == nil {
		return nil
	}

	start := time.Now()
	log.Infof("auto-saving drive %d", drive)

	fm, err := format.NewFormat(autoSaveFormat)
	if err != nil {
		return err
	}

	_, file, err := autoSavePath(drive, true)
	if err != nil {
		return err
	}

	preamble := make([]byte, 2)

	var flags byte = 0
	if d.IsModified() {
		flags |= FlagModified
	}
	if d.IsWriteProtected() {
		flags |= FlagWriteProtected
	}

	preamble[ixVersion] = AutoSaveVersion
	preamble[ixFlags] = flags

	err = replaceFile(file, func(out io.Writer) error {
		if err := writeRaw(preamble, out); err != nil {
			return err
		}
		return fm.Write(d, out)
	})
	if err != nil {
		return err
	}

	log.Debugf("auto-save took %v", time.Since(start))
	return nil
}

// AutoLoad returns nil without error if there is no auto-save for drive.
func AutoLoad(drive int) (*disk.Disk, error) {

	log.Infof("loading auto-save for drive %d", drive)

	_, file, err := autoSavePath(drive, false)
	if err != nil {
		return nil, err
	}

	fd, err := os.Open(file)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Infof("no auto-save file for drive %d", drive)
		return nil, nil
	}
	defer fd.Close()

	in := bufio.NewReader(fd)

	preamble, err := readRaw(in, 64)
	if err != nil {
		return nil, fmt.Errorf("error reading preamble: %v", err)
	}

	if len(preamble) <= ixFlags || preamble[ixVersion] != AutoSaveVersion {
		return nil, fmt.Errorf("incompatible auto-save version, want %d",
			AutoSaveVersion)
	}

	fm, err := format.NewFormat(autoSaveFormat)
	if err != nil {
		return nil, err
	}

	d, err := fm.Read(in)
	if err != nil {
		return nil, err
	}

	d.SetModified(preamble[ixFlags]&FlagModified != 0)
	d.SetWriteProtected(preamble[ixFlags]&FlagWriteProtected != 0)
	return d, nil
}

// AutoSaveState stores the drive state that write produces next to the
// auto-saved disk.
func AutoSaveState(drive int, write func(io.Writer) error) error {

	dir, _, err := autoSavePath(drive, true)
	if err != nil {
		return err
	}

	log.Infof("saving state of drive %d", drive)
	return replaceFile(filepath.Join(dir, stateFile), write)
}

// AutoLoadState hands the saved state of drive to read. It returns false
// without error if there is no saved state.
func AutoLoadState(drive int, read func(io.Reader) error) (bool, error) {

	dir, _, err := autoSavePath(drive, false)
	if err != nil {
		return false, err
	}

	fd, err := os.Open(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer fd.Close()

	if err := read(bufio.NewReader(fd)); err != nil {
		return false, err
	}
	return true, nil
}

//
func AutoRemoveState(drive int) error {

	dir, _, err := autoSavePath(drive, false)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, stateFile)); err != nil &&
		!os.IsNotExist(err) {
		return err
	}
	return nil
}

//
func AutoRemove(drive int) error {

	_, file, err := autoSavePath(drive, false)
	if err != nil {
		return err
	}

	if err := os.Remove(file); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	} else {
		log.Infof("removed auto-save for drive %d", drive)
	}

	return nil
}

//
func autoSavePath(drive int, create bool) (string, string, error) {

	base := baseDir
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".gcrdrive")
	}

	dir := filepath.Join(base, fmt.Sprintf("%d", drive))

	if create {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", "", err
		}
	}

	return dir, filepath.Join(dir, "disk"), nil
}

// replaceFile writes file via a temporary file, so that a failed write
// leaves any previous version intact.
func replaceFile(file string, write func(io.Writer) error) error {

	tmp := fmt.Sprintf("%s_", file)

	fd, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(fd)

	if err := write(out); err != nil {
		fd.Close()
		return err
	}

	if err := out.Flush(); err != nil {
		fd.Close()
		return err
	}

	if err := fd.Sync(); err != nil {
		fd.Close()
		return err
	}

	if err := fd.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, file)
}

//
func readRaw(in io.Reader, maxLen int) ([]byte, error) {

	buf := []byte{0, 0}
	if _, err := io.ReadFull(in, buf); err != nil {
		return nil, err
	}

	length := int(buf[0]) + 256*int(buf[1])

	if length > maxLen {
		return nil, fmt.Errorf("max length %d, but have %d", maxLen, length)
	}

	ret := make([]byte, length)
	if _, err := io.ReadFull(in, ret); err != nil {
		return nil, err
	}

	return ret, nil
}

//
func writeRaw(data []byte, out io.Writer) error {

	buf := []byte{byte(len(data) % 256), byte((len(data) >> 8))}

	if _, err := out.Write(buf); err != nil {
		return err
	}

	if _, err := out.Write(data); err != nil {
		return err
	}

	return nil
}
