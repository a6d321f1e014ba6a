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
func NewProtect() *Protect {

	p := &Protect{}
	p.Runner = *NewRunner(
		"protect [-d|--drive {drive}] [-s|--state {on|off}] [-p|--port {port}]",
		"change write protection of disk in drive",
		`
Use the protect command to write protect the disk in a drive, or remove the
protection. Without a state, protection is toggled.`,
		runnerHelpEpilogue, p.Run)

	p.AddBaseSettings()
	p.AddSetting(&p.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)
	p.AddSetting(&p.State, "state", "s", "", nil,
		"protection state, on or off", false)

	return p
}

//
type Protect struct {
	//
	Runner
	//
	Drive int
	State string
}

//
func (p *Protect) Run() error {
	if err := validateDrive(p.Drive); err != nil {
		return err
	}
	return p.printCall("PUT",
		fmt.Sprintf("/drive/%d/protect%s", p.Drive, query("state", p.State)), nil)
}
