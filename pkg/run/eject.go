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
)

//
func NewEject() *Eject {

	e := &Eject{}
	e.Runner = *NewRunner(
		"eject [-d|--drive {drive}] [-f|--force] [-p|--port {port}]",
		"eject disk from drive",
		"\nUse the eject command to remove the disk from one of the daemon's drives.",
		runnerHelpEpilogue, e.Run)

	e.AddBaseSettings()
	e.AddSetting(&e.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)
	e.AddSetting(&e.Force, "force", "f", "", false,
		"force ejecting modified disk", false)

	return e
}

//
type Eject struct {
	//
	Runner
	//
	Drive int
	Force bool
}

//
func (e *Eject) Run() error {

	if err := validateDrive(e.Drive); err != nil {
		return err
	}

	err := e.eject(e.Force)
	if isConflict(err) &&
		GetUserConfirmation("Disk in drive is modified, eject anyway?") {
		err = e.eject(true)
	}
	return err
}

//
func (e *Eject) eject(force bool) error {
	path := fmt.Sprintf("/drive/%d/eject", e.Drive)
	if force {
		path += query("force", "true")
	}
	return e.printCall("GET", path, nil)
}
