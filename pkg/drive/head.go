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
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// MoveHeadUp moves the head one halftrack towards the center of the disk.
// The angular position is kept, i.e. the head lands on the bit at the same
// fraction of the new halftrack's length.
func (d *Drive) MoveHeadUp() {
	if d.halftrack < disk.HalftrackCount {
		d.moveHead(d.halftrack + 1)
	}
}

// MoveHeadDown moves the head one halftrack towards the edge of the disk.
func (d *Drive) MoveHeadDown() {
	if d.halftrack > 1 {
		d.moveHead(d.halftrack - 1)
	}
}

func (d *Drive) moveHead(ht int) {

	from := d.disk.LengthOfHalftrack(d.halftrack)
	d.halftrack = ht
	d.offset = scaleOffset(d.offset, from, d.disk.LengthOfHalftrack(ht))

	log.WithFields(log.Fields{
		"drive":     d.device,
		"halftrack": d.halftrack,
		"offset":    d.offset,
	}).Trace("head step")

	d.notifyVolume(MsgDriveStep, d.config.StepVolume)
}

// keepAngle runs change, which may swap the medium under the head, and then
// places the head at the same fraction of the current halftrack's new length.
func (d *Drive) keepAngle(change func()) {
	from := d.disk.LengthOfHalftrack(d.halftrack)
	change()
	d.offset = scaleOffset(d.offset, from, d.disk.LengthOfHalftrack(d.halftrack))
}

// scaleOffset maps bit offset off on a halftrack of length from onto one of
// length to, rounding to the nearest bit.
func scaleOffset(off, from, to int) int {
	if from == to {
		return off
	}
	off = (off*to + from/2) / from
	if off >= to {
		off = to - 1
	}
	return off
}

// Halftrack returns the current head position.
func (d *Drive) Halftrack() int {
	return d.halftrack
}

// SetZone selects the speed zone, i.e. the bit cell length used for reading
// and writing. Only the two low bits of z are used.
func (d *Drive) SetZone(z int) {
	z &= 0x03
	if z != d.zone {
		log.WithFields(log.Fields{"drive": d.device, "zone": z}).Trace("zone switch")
		d.zone = z
	}
}

// SetRotating switches the spindle motor on or off.
func (d *Drive) SetRotating(on bool) {
	if on == d.spinning {
		return
	}
	d.spinning = on
	if on {
		d.notify(MsgDriveMotorOn)
	} else {
		d.notify(MsgDriveMotorOff)
	}
	d.chips.IEC.UpdateTransferStatus()
}

//
func (d *Drive) IsRotating() bool {
	return d.spinning
}

//
func (d *Drive) SetRedLED(on bool) {
	if on == d.redLED {
		return
	}
	d.redLED = on
	if on {
		d.notify(MsgDriveLEDOn)
	} else {
		d.notify(MsgDriveLEDOff)
	}
}
