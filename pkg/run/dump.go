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
	"strconv"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		`dump [-d|--drive {drive}] [-t|--track {track} | --halftrack {halftrack}]
      [-p|--port {port}]`,
		"analyze tracks of disk in drive",
		`
Use the dump command to analyze the disk in a drive. Without a track, a summary
line for each non-empty halftrack is shown. With a track, sync marks, sector
headers, and errors of that track are listed, followed by a hex dump of its raw
bits.`,
		runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)
	d.AddSetting(&d.Track, "track", "t", "", nil, "track to analyze", false)
	d.AddSetting(&d.Halftrack, "halftrack", "", "", nil,
		"halftrack to analyze", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Drive     int
	Track     int
	Halftrack int
}

//
func (d *Dump) Run() error {

	if err := validateDrive(d.Drive); err != nil {
		return err
	}

	var q string
	switch {
	case d.Track != 0 && d.Halftrack != 0:
		return fmt.Errorf("specify either --track or --halftrack")
	case d.Track != 0:
		q = query("track", strconv.Itoa(d.Track))
	case d.Halftrack != 0:
		q = query("halftrack", strconv.Itoa(d.Halftrack))
	}

	return d.printCall("GET", fmt.Sprintf("/drive/%d/dump%s", d.Drive, q), nil)
}
