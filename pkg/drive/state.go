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
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

var ErrInvalidState = errors.New("invalid drive state")

// PersistentState is the part of a drive's state that survives a reset.
type PersistentState struct {
	Config            Config          `json:"config"`
	InsertionStatus   InsertionStatus `json:"insertionStatus"`
	DiskChangeCounter int             `json:"diskChangeCounter"`

	// the inserted disk, present only while fully inserted
	Disk         *disk.State `json:"disk,omitempty"`
	DiskToInsert *disk.State `json:"diskToInsert,omitempty"`
}

// VolatileState is cleared by a reset.
type VolatileState struct {
	Spinning         bool   `json:"spinning"`
	RedLED           bool   `json:"redLED"`
	ElapsedTime      int64  `json:"elapsedTime"`
	NextClock        int64  `json:"nextClock"`
	NextCarry        int64  `json:"nextCarry"`
	CounterUF4       uint8  `json:"counterUF4"`
	CarryCounter     uint64 `json:"carryCounter"`
	ByteReadyCounter uint8  `json:"byteReadyCounter"`
	Halftrack        int    `json:"halftrack"`
	Offset           int    `json:"offset"`
	Zone             int    `json:"zone"`
	ReadShiftreg     uint16 `json:"readShiftreg"`
	WriteShiftreg    uint8  `json:"writeShiftreg"`
	Sync             bool   `json:"sync"`
	ByteReady        bool   `json:"byteReady"`
}

// State is the complete state of a drive, including the inserted disk and
// any disk waiting to be inserted. ROM contents are not part of it.
type State struct {
	Persistent PersistentState `json:"persistent"`
	Volatile   VolatileState   `json:"volatile"`
}

//
func (s *State) Write(w io.Writer) error {
	return json.NewEncoder(w).Encode(s)
}

//
func ReadState(r io.Reader) (*State, error) {
	s := &State{}
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return s, nil
}

// Snapshot returns the current state.
func (d *Drive) Snapshot() *State {

	d.suspend()
	defer d.resume()

	ret := &State{
		Persistent: PersistentState{
			Config:            d.config,
			InsertionStatus:   d.insertionStatus,
			DiskChangeCounter: d.diskChangeCounter,
		},
		Volatile: VolatileState{
			Spinning:         d.spinning,
			RedLED:           d.redLED,
			ElapsedTime:      d.elapsedTime,
			NextClock:        d.nextClock,
			NextCarry:        d.nextCarry,
			CounterUF4:       d.counterUF4,
			CarryCounter:     d.carryCounter,
			ByteReadyCounter: d.byteReadyCounter,
			Halftrack:        d.halftrack,
			Offset:           d.offset,
			Zone:             d.zone,
			ReadShiftreg:     d.readShiftreg,
			WriteShiftreg:    d.writeShiftreg,
			Sync:             d.sync,
			ByteReady:        d.byteReady,
		},
	}

	if d.hasDisk() {
		ret.Persistent.Disk = d.disk.State()
	}
	if d.diskToInsert != nil {
		ret.Persistent.DiskToInsert = d.diskToInsert.State()
	}

	return ret
}

// Restore installs a previously taken snapshot. The state is validated
// before anything is changed.
func (d *Drive) Restore(s *State) error {

	d.suspend()
	defer d.resume()

	p, v := &s.Persistent, &s.Volatile

	dsk := disk.New()
	if p.Disk != nil {
		if p.InsertionStatus != FullyInserted {
			return fmt.Errorf("%w: disk present while %s", ErrInvalidState,
				p.InsertionStatus)
		}
		var err error
		if dsk, err = disk.FromState(p.Disk); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}

	var toInsert *disk.Disk
	if p.DiskToInsert != nil {
		var err error
		if toInsert, err = disk.FromState(p.DiskToInsert); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidState, err)
		}
	}

	switch {
	case !p.Config.Type.valid():
		return fmt.Errorf("%w: drive type %d", ErrInvalidState, p.Config.Type)
	case p.InsertionStatus < FullyEjected || p.InsertionStatus > PartiallyEjected:
		return fmt.Errorf("%w: insertion status %d", ErrInvalidState, p.InsertionStatus)
	case p.DiskChangeCounter < 0:
		return fmt.Errorf("%w: disk change counter %d", ErrInvalidState, p.DiskChangeCounter)
	case !disk.IsHalftrackNumber(v.Halftrack):
		return fmt.Errorf("%w: halftrack %d", ErrInvalidState, v.Halftrack)
	case !dsk.IsValidHeadPosition(v.Halftrack, v.Offset):
		return fmt.Errorf("%w: head offset %d", ErrInvalidState, v.Offset)
	case v.Zone < 0 || v.Zone > 3:
		return fmt.Errorf("%w: zone %d", ErrInvalidState, v.Zone)
	case p.Config.Connected && d.rom == nil:
		return ErrROMMissing
	}

	d.config = p.Config
	d.insertionStatus = p.InsertionStatus
	d.diskChangeCounter = p.DiskChangeCounter
	d.disk = dsk
	d.diskToInsert = toInsert

	d.spinning = v.Spinning
	d.redLED = v.RedLED
	d.elapsedTime = v.ElapsedTime
	d.nextClock = v.NextClock
	d.nextCarry = v.NextCarry
	d.counterUF4 = v.CounterUF4
	d.carryCounter = v.CarryCounter
	d.byteReadyCounter = v.ByteReadyCounter
	d.halftrack = v.Halftrack
	d.offset = v.Offset
	d.zone = v.Zone
	d.readShiftreg = v.ReadShiftreg
	d.writeShiftreg = v.WriteShiftreg
	d.sync = v.Sync
	d.byteReady = v.ByteReady

	return nil
}
