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

package run

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

//
func NewInsert() *Insert {

	i := &Insert{}
	i.Runner = *NewRunner(
		`insert [-d|--drive {drive}] -i|--input {file} | -r|--ref {reference} |
      -n|--new [--name {name}] [--id {id}] [--protect] [-f|--force] [-p|--port {port}]`,
		"insert disk into drive",
		`
Use the insert command to insert a disk into one of the daemon's drives. The disk
can be read from a local image file, referenced in the daemon's repo or on the
web, or be a newly formatted blank disk.`,
		`- Supported image types are .d64, .g64, and .prg, optionally compressed as .gz,
  .zip, or .7z.

- References are either repo://{path in repo} for images in the daemon's repo,
  or http(s) URLs.

`+runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	i.AddSetting(&i.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)
	i.AddSetting(&i.File, "input", "i", "", nil, "disk image input file", false)
	i.AddSetting(&i.Ref, "ref", "r", "", nil, "disk image reference", false)
	i.AddSetting(&i.New, "new", "n", "", false, "insert blank disk", false)
	i.AddSetting(&i.Name, "name", "", "", "EMPTY", "name of blank disk", false)
	i.AddSetting(&i.ID, "id", "", "", "00", "ID of blank disk", false)
	i.AddSetting(&i.Protect, "protect", "", "", false,
		"write protect inserted disk", false)
	i.AddSetting(&i.Force, "force", "f", "", false,
		"force replacing modified disk in drive", false)

	return i
}

//
type Insert struct {
	//
	Runner
	//
	Drive   int
	File    string
	Ref     string
	New     bool
	Name    string
	ID      string
	Protect bool
	Force   bool
}

//
func (i *Insert) Run() error {

	if err := validateDrive(i.Drive); err != nil {
		return err
	}

	sources := 0
	for _, s := range []bool{i.File != "", i.Ref != "", i.New} {
		if s {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("specify exactly one of --input, --ref, or --new")
	}

	force := strconv.FormatBool(i.Force)
	protect := strconv.FormatBool(i.Protect)

	if i.New {
		return i.printCall("PUT", fmt.Sprintf("/drive/%d/new%s", i.Drive,
			query("name", i.Name, "id", i.ID, "force", force)), nil)
	}

	if i.Ref != "" {
		return i.printCall("PUT", fmt.Sprintf("/drive/%d%s", i.Drive,
			query("ref", i.Ref, "force", force, "protect", protect)), nil)
	}

	f, err := os.Open(i.File)
	if err != nil {
		return err
	}
	defer f.Close()

	var body io.Reader = bufio.NewReader(f)
	return i.printCall("PUT", fmt.Sprintf("/drive/%d%s", i.Drive,
		query("name", filepath.Base(i.File), "force", force, "protect", protect)),
		body)
}
