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
func NewMech() *Mech {

	m := &Mech{}
	m.Runner = *NewRunner(
		`mech [-d|--drive {drive}] [--motor {on|off}] [--led {on|off}] [--soe {on|off}]
      [--mode {read|write}] [--step {steps}] [-t|--track {track}] [--zone {zone}]
      [--byte {value}] [--capture] [-p|--port {port}]`,
		"operate drive mechanics directly",
		`
Use the mech command to drive the mechanics of a drive directly, bypassing the
drive's DOS: switch motor and LED, step the head or seek to a track, set the
speed zone and read/write mode, and capture the bytes the read electronics
deliver.`,
		`- Steps are halftracks, positive values move towards the center of the disk.

- --soe enables or disables the byte ready signal to the drive CPU.

`+runnerHelpEpilogue, m.Run)

	m.AddBaseSettings()
	m.AddSetting(&m.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)
	m.AddSetting(&m.Motor, "motor", "", "", nil, "motor on or off", false)
	m.AddSetting(&m.LED, "led", "", "", nil, "LED on or off", false)
	m.AddSetting(&m.SOE, "soe", "", "", nil, "byte ready on or off", false)
	m.AddSetting(&m.Mode, "mode", "", "", nil, "read or write", false)
	m.AddSetting(&m.Step, "step", "", "", nil, "halftracks to step", false)
	m.AddSetting(&m.Track, "track", "t", "", nil, "track to seek to", false)
	m.AddSetting(&m.Zone, "zone", "", "", -1, "speed zone (0-3)", false)
	m.AddSetting(&m.Byte, "byte", "", "", nil, "byte to write", false)
	m.AddSetting(&m.Capture, "capture", "", "", false,
		"show captured bytes", false)

	return m
}

//
type Mech struct {
	//
	Runner
	//
	Drive   int
	Motor   string
	LED     string
	SOE     string
	Mode    string
	Step    int
	Track   int
	Zone    int
	Byte    string
	Capture bool
}

//
func (m *Mech) Run() error {

	if err := validateDrive(m.Drive); err != nil {
		return err
	}

	kv := []string{"motor", m.Motor, "led", m.LED, "soe", m.SOE, "mode", m.Mode,
		"byte", m.Byte}
	if m.Step != 0 {
		kv = append(kv, "step", strconv.Itoa(m.Step))
	}
	if m.Track != 0 {
		kv = append(kv, "track", strconv.Itoa(m.Track))
	}
	if m.Zone != -1 {
		kv = append(kv, "zone", strconv.Itoa(m.Zone))
	}
	if m.Capture {
		kv = append(kv, "capture", "true")
	}

	return m.printCall("PUT",
		fmt.Sprintf("/drive/%d/mech%s", m.Drive, query(kv...)), nil)
}
