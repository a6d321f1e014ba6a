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
func NewList() *List {

	l := &List{}
	l.Runner = *NewRunner(
		"ls [-d|--drive {drive}] [-p|--port {port}]",
		"list directory of disk in drive",
		"\nUse the ls command to get the directory of the disk in a drive.",
		runnerHelpEpilogue, l.Run)

	l.AddBaseSettings()
	l.AddSetting(&l.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)

	return l
}

//
type List struct {
	//
	Runner
	//
	Drive int
}

//
func (l *List) Run() error {
	if err := validateDrive(l.Drive); err != nil {
		return err
	}
	return l.printCall("GET", fmt.Sprintf("/drive/%d/list", l.Drive), nil)
}
