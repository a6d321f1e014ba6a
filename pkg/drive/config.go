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

package drive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedDriveType = errors.New("unsupported drive type")
	ErrInvalidConfigItem    = errors.New("invalid configuration item")
	ErrROMMissing           = errors.New("no drive ROM installed")
	ErrInvalidROM           = errors.New("invalid drive ROM size")
)

//
type DriveType int

const (
	VC1541 DriveType = iota
	VC1541C
	VC1541II
)

var driveTypeNames = []string{"VC1541", "VC1541C", "VC1541II"}

//
func (t DriveType) String() string {
	if t.valid() {
		return driveTypeNames[t]
	}
	return fmt.Sprintf("type-%d", int(t))
}

func (t DriveType) valid() bool {
	return VC1541 <= t && t <= VC1541II
}

//
func (t DriveType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

//
func (t *DriveType) UnmarshalText(text []byte) error {
	dt, err := ParseDriveType(string(text))
	if err != nil {
		return err
	}
	*t = dt
	return nil
}

//
func ParseDriveType(s string) (DriveType, error) {
	for ix, n := range driveTypeNames {
		if strings.EqualFold(s, n) {
			return DriveType(ix), nil
		}
	}
	return VC1541, fmt.Errorf("%w: %s", ErrUnsupportedDriveType, s)
}

// ConfigItem names a single configurable property of a drive.
type ConfigItem int

const (
	CfgType ConfigItem = iota
	CfgConnected
	CfgSwitchedOn
	CfgPan
	CfgPowerVolume
	CfgStepVolume
	CfgInsertVolume
	CfgEjectVolume
)

var configItemNames = map[string]ConfigItem{
	"type":          CfgType,
	"connect":       CfgConnected,
	"power":         CfgSwitchedOn,
	"pan":           CfgPan,
	"power-volume":  CfgPowerVolume,
	"step-volume":   CfgStepVolume,
	"insert-volume": CfgInsertVolume,
	"eject-volume":  CfgEjectVolume,
}

//
func ParseConfigItem(s string) (ConfigItem, error) {
	if item, ok := configItemNames[strings.ToLower(s)]; ok {
		return item, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidConfigItem, s)
}

// ParseConfigValue converts the textual value of a config item, accepting
// drive type names for CfgType, and on/off, yes/no, true/false for switches.
func ParseConfigValue(item ConfigItem, s string) (int, error) {
	switch item {
	case CfgType:
		t, err := ParseDriveType(s)
		return int(t), err
	case CfgConnected, CfgSwitchedOn:
		switch strings.ToLower(s) {
		case "on", "yes", "true", "1":
			return 1, nil
		case "off", "no", "false", "0":
			return 0, nil
		}
		return 0, fmt.Errorf("invalid switch value: %s", s)
	}
	return strconv.Atoi(s)
}

// Config holds the user configurable properties of a drive. It survives
// resets.
type Config struct {
	Type         DriveType `json:"type"`
	Connected    bool      `json:"connected"`
	SwitchedOn   bool      `json:"switchedOn"`
	Pan          int       `json:"pan"`
	PowerVolume  int       `json:"powerVolume"`
	StepVolume   int       `json:"stepVolume"`
	InsertVolume int       `json:"insertVolume"`
	EjectVolume  int       `json:"ejectVolume"`
}

//
func DefaultConfig() Config {
	return Config{
		Type:         VC1541II,
		SwitchedOn:   true,
		PowerVolume:  50,
		StepVolume:   50,
		InsertVolume: 50,
		EjectVolume:  50,
	}
}

//
func (c *Config) active() bool {
	return c.Connected && c.SwitchedOn
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Configure changes a config item. Invalid values are rejected before any
// change is made. Switching the drive on or connecting it resets it.
func (d *Drive) Configure(item ConfigItem, value int) error {

	d.suspend()
	defer d.resume()

	wasActive := d.config.active()

	switch item {

	case CfgType:
		t := DriveType(value)
		if !t.valid() {
			return fmt.Errorf("%w: %d", ErrUnsupportedDriveType, value)
		}
		d.config.Type = t

	case CfgConnected:
		on := value != 0
		if on && d.rom == nil {
			return ErrROMMissing
		}
		if on == d.config.Connected {
			return nil
		}
		d.config.Connected = on
		if on {
			d.reset()
			d.notify(MsgDriveConnect)
		} else {
			d.notify(MsgDriveDisconnect)
		}

	case CfgSwitchedOn:
		on := value != 0
		if on == d.config.SwitchedOn {
			return nil
		}
		d.config.SwitchedOn = on
		if on {
			d.reset()
			d.notifyVolume(MsgDrivePowerOn, d.config.PowerVolume)
		} else {
			d.notifyVolume(MsgDrivePowerOff, d.config.PowerVolume)
		}

	case CfgPan:
		d.config.Pan = value
	case CfgPowerVolume:
		d.config.PowerVolume = clampVolume(value)
	case CfgStepVolume:
		d.config.StepVolume = clampVolume(value)
	case CfgInsertVolume:
		d.config.InsertVolume = clampVolume(value)
	case CfgEjectVolume:
		d.config.EjectVolume = clampVolume(value)

	default:
		return fmt.Errorf("%w: %d", ErrInvalidConfigItem, item)
	}

	if isActive := d.config.active(); isActive != wasActive {
		if isActive {
			d.notify(MsgDriveActive)
		} else {
			d.notify(MsgDriveInactive)
		}
	}

	return nil
}

// Config returns a copy of the current configuration.
func (d *Drive) Config() Config {
	d.suspend()
	defer d.resume()
	return d.config
}

// SetROM installs the drive ROM, which has to be present before the drive
// can be connected. 1541 ROMs are 16KB, some replacement ROMs 32KB.
func (d *Drive) SetROM(rom []byte) error {
	if len(rom) != 0x4000 && len(rom) != 0x8000 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidROM, len(rom))
	}
	d.suspend()
	defer d.resume()
	d.rom = append([]byte(nil), rom...)
	return nil
}

//
func (d *Drive) HasROM() bool {
	d.suspend()
	defer d.resume()
	return d.rom != nil
}
