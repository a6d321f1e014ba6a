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
)

// InsertionStatus is the mechanical state of the disk in the drive.
type InsertionStatus int

const (
	FullyEjected InsertionStatus = iota
	PartiallyInserted
	FullyInserted
	PartiallyEjected
)

var insertionStatusNames = []string{
	"fully ejected", "partially inserted", "fully inserted", "partially ejected"}

//
func (s InsertionStatus) String() string {
	if s >= FullyEjected && s <= PartiallyEjected {
		return insertionStatusNames[s]
	}
	return "unknown"
}

//
func (s InsertionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

//
func (s *InsertionStatus) UnmarshalText(text []byte) error {
	for ix, n := range insertionStatusNames {
		if n == string(text) {
			*s = InsertionStatus(ix)
			return nil
		}
	}
	return ErrInvalidState
}

// DiskChangeDelay is the number of vertical sync ticks a disk needs to slide
// from one insertion state into the next.
const DiskChangeDelay = 17

type diskTransition struct {
	next   InsertionStatus
	delay  int
	guard  func(d *Drive) bool
	action func(d *Drive)
}

// the disk change cycle; a transition fires when the disk change counter
// reaches zero and its guard holds
var diskTransitions = [...]diskTransition{
	FullyEjected: {
		next:  PartiallyInserted,
		delay: DiskChangeDelay,
		guard: func(d *Drive) bool { return d.diskToInsert != nil },
	},
	PartiallyInserted: {
		next:   FullyInserted,
		action: (*Drive).completeInsertion,
	},
	FullyInserted: {
		next:   PartiallyEjected,
		delay:  DiskChangeDelay,
		action: (*Drive).pullDisk,
	},
	PartiallyEjected: {
		next:   FullyEjected,
		delay:  DiskChangeDelay,
		action: (*Drive).completeEjection,
	},
}

// VSync advances a pending disk change. It is called once per frame by the
// emulation loop.
func (d *Drive) VSync() {

	if d.diskChangeCounter == 0 {
		return
	}
	if d.diskChangeCounter--; d.diskChangeCounter > 0 {
		return
	}

	tr := diskTransitions[d.insertionStatus]
	if tr.guard != nil && !tr.guard(d) {
		return
	}

	log.WithFields(log.Fields{
		"drive": d.device,
		"from":  d.insertionStatus,
		"to":    tr.next,
	}).Debug("disk change")

	d.insertionStatus = tr.next
	d.diskChangeCounter = tr.delay
	if tr.action != nil {
		tr.action(d)
	}
}

func (d *Drive) completeInsertion() {
	d.keepAngle(func() { d.disk.CopyFrom(d.diskToInsert) })
	d.diskToInsert = nil
	d.notifyVolume(MsgDiskInserted, d.config.InsertVolume)
}

func (d *Drive) pullDisk() {
	d.keepAngle(d.disk.Clear)
}

func (d *Drive) completeEjection() {
	d.notifyVolume(MsgDiskEjected, d.config.EjectVolume)
}
