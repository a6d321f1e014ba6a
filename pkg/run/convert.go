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
	"fmt"
	"os"
	"sort"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/format"
)

//
func NewConvert() *Convert {

	c := &Convert{}
	c.Runner = *NewRunner(
		"convert -i|--input {file} -o|--output {file} [-f|--force]",
		"convert disk image between formats",
		`
Use the convert command to convert a disk image into a different format. The image
is encoded onto an emulated disk, and decoded again if necessary. Any sectors that
could not be decoded are reported.`,
		`- Input may be .d64, .g64, or .prg, optionally compressed as .gz, .zip, or .7z.
  Output may be .d64 or .g64. A D64 output gets error info bytes if any sectors
  could not be decoded.

- This command does not talk to the daemon.
`, c.Run)

	c.AddSetting(&c.Input, "input", "i", "", nil, "disk image input file", true)
	c.AddSetting(&c.Output, "output", "o", "", nil, "disk image output file", true)
	c.AddSetting(&c.Force, "force", "f", "", false,
		"force overwriting output file", false)

	return c
}

//
type Convert struct {
	//
	Runner
	//
	Input  string
	Output string
	Force  bool
}

//
func (c *Convert) Run() error {

	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil &&
			!GetUserConfirmation("File exists, overwrite?") {
			return nil
		}
	}

	d, err := format.Load(c.Input)
	if err != nil {
		return fmt.Errorf("cannot load '%s': %v", c.Input, err)
	}

	img, err := cbmdos.Decode(d)
	if err != nil {
		return fmt.Errorf("cannot decode '%s': %v", c.Input, err)
	}

	errs := img.Errors()
	pos := make([]cbmdos.TS, 0, len(errs))
	for ts := range errs {
		pos = append(pos, ts)
	}
	sort.Slice(pos, func(i, j int) bool {
		if pos[i].T != pos[j].T {
			return pos[i].T < pos[j].T
		}
		return pos[i].S < pos[j].S
	})
	for _, ts := range pos {
		fmt.Fprintf(stdout, "sector %v: %v\n", ts, errs[ts])
	}

	if err := format.Store(d, c.Output); err != nil {
		return fmt.Errorf("cannot store '%s': %v", c.Output, err)
	}

	fmt.Fprintf(stdout, "converted %s -> %s, %d bad sectors\n",
		c.Input, c.Output, len(errs))
	return nil
}
