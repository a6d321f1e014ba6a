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
	"encoding/json"
	"fmt"
	"io"

	"github.com/xelalexv/gcrdrive/pkg/control"
	"github.com/xelalexv/gcrdrive/pkg/util"
)

//
func NewVersion() *Version {

	v := &Version{}
	v.Runner = *NewRunner(
		"version [-p|--port {port}]",
		"print version of client and daemon",
		"\nUse the version command to print the version of gcrctl and of the daemon.",
		runnerHelpEpilogue, v.Run)

	v.AddBaseSettings()
	return v
}

//
type Version struct {
	Runner
}

//
func (v *Version) Run() error {

	fmt.Fprintf(stdout, "gcrctl: %s\n", util.Version())

	resp, err := v.apiCall("GET", "/version", true, nil)
	if err != nil {
		fmt.Fprintf(stdout, "daemon: not reachable (%v)\n", err)
		return nil
	}
	defer resp.Close()

	var ver control.Version
	if err := json.NewDecoder(io.LimitReader(resp, 4096)).Decode(&ver); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "daemon: %s\n", ver.Daemon)
	return nil
}

// PrintVersion prints the version of gcrctl only.
func PrintVersion() {
	fmt.Fprintf(stdout, "gcrctl %s\n", util.Version())
}
