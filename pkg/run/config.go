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
func NewConfig() *Config {

	c := &Config{}
	c.Runner = *NewRunner(
		`config [-d|--drive {drive}] [-i|--item {item} -v|--value {value}]
      [-p|--port {port}]`,
		"change configuration of drive",
		`
Use the config command to show or change the configuration of a drive. Without an
item, the current configuration is shown. Configuration changes are not persisted,
and will be reverted once the daemon restarts.`,
		`- Configuration items are type, connect, power, pan, power-volume, step-volume,
  insert-volume, and eject-volume.

`+runnerHelpEpilogue, c.Run)

	c.AddBaseSettings()
	c.AddSetting(&c.Drive, "drive", "d", "", 8, "drive number (8 or 9)", false)
	c.AddSetting(&c.Item, "item", "i", "", nil, "configuration item", false)
	c.AddSetting(&c.Value, "value", "v", "", nil, "new value for item", false)

	return c
}

//
type Config struct {
	//
	Runner
	//
	Drive int
	Item  string
	Value string
}

//
func (c *Config) Run() error {

	if err := validateDrive(c.Drive); err != nil {
		return err
	}
	if c.Item != "" && c.Value == "" {
		return fmt.Errorf("no value given for '%s'", c.Item)
	}

	return c.printCall("PUT", fmt.Sprintf("/drive/%d/config%s", c.Drive,
		query("item", c.Item, "value", c.Value)), nil)
}
