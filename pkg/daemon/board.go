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

package daemon

import (
	"sync/atomic"

	"github.com/xelalexv/gcrdrive/pkg/drive"
)

const captureSize = 1024

// Board is a stand-in for the drive's logic board, i.e. the 6502 and the two
// VIAs, for running a drive without DOS ROM code. Motor, head, speed zone and
// the VIA2 control lines are set from the outside, and bytes signalled via
// byte ready are captured. All methods of Board except Captured must be
// called with the emulation suspended.
type Board struct {
	drive *drive.Drive
	cpu   *boardCPU
	via1  *boardVIA
	via2  *boardVIA
	iec   *boardBus
}

func newBoard() *Board {
	b := &Board{
		cpu:  &boardCPU{},
		via1: &boardVIA{ca2: false, cb2: true},
		iec:  &boardBus{},
	}
	b.via2 = &boardVIA{board: b, ca2: true, cb2: true, capture: true}
	return b
}

func (b *Board) chips() drive.Chips {
	return drive.Chips{CPU: b.cpu, VIA1: b.via1, VIA2: b.via2, IEC: b.iec}
}

func (b *Board) attach(d *drive.Drive) {
	b.drive = d
}

// SetMotor switches the spindle motor.
func (b *Board) SetMotor(on bool) {
	b.drive.SetRotating(on)
}

// Step moves the head by steps halftracks, towards the center for positive
// values.
func (b *Board) Step(steps int) {
	for ; steps > 0; steps-- {
		b.drive.MoveHeadUp()
	}
	for ; steps < 0; steps++ {
		b.drive.MoveHeadDown()
	}
}

// SeekTrack moves the head to the center of track t, and selects the track's
// default speed zone.
func (b *Board) SeekTrack(t, zone int) {
	b.Step(2*t - 1 - b.drive.Halftrack())
	b.drive.SetZone(zone)
}

//
func (b *Board) SetZone(z int) {
	b.drive.SetZone(z)
}

//
func (b *Board) SetLED(on bool) {
	b.drive.SetRedLED(on)
}

// SetReadMode sets VIA2 CB2, which selects read (high) or write (low) mode.
func (b *Board) SetReadMode(read bool) {
	b.via2.cb2 = read
}

// SetByteReadyEnabled sets the SOE line VIA2 CA2.
func (b *Board) SetByteReadyEnabled(on bool) {
	b.via2.ca2 = on
}

// SetWriteByte sets the value on VIA2 port A, which is written to disk in
// write mode.
func (b *Board) SetWriteByte(v byte) {
	b.via2.pa = v
}

// Captured returns the most recent bytes read from disk, oldest first, and
// the total number of bytes read so far.
func (b *Board) Captured() ([]byte, uint64) {
	return b.via2.captured()
}

//
type boardCPU struct {
	cycle uint64
	pc    uint16
}

func (c *boardCPU) ExecuteOneCycle() { c.cycle++ }
func (c *boardCPU) Cycle() uint64    { return c.cycle }
func (c *boardCPU) Reset(pc uint16)  { c.pc = pc }

//
type boardVIA struct {
	board    *Board
	ca1      bool
	ca2      bool
	cb2      bool
	pa       byte
	capture  bool
	executed uint64
	idle     uint64
	// ring buffer of captured bytes
	ring  [captureSize]byte
	count uint64
}

func (v *boardVIA) WakeUpCycle() uint64 { return 0 }
func (v *boardVIA) Execute()            { v.executed++ }
func (v *boardVIA) Idle()               { v.idle++ }
func (v *boardVIA) CA2() bool           { return v.ca2 }
func (v *boardVIA) CB2() bool           { return v.cb2 }
func (v *boardVIA) PA() byte            { return v.pa }

func (v *boardVIA) Reset() {
	v.ca1 = true
}

// a falling edge on CA1 latches the read shift register into port A
func (v *boardVIA) CA1Action(value bool) {
	if v.capture && v.ca1 && !value {
		n := atomic.LoadUint64(&v.count)
		v.ring[n%captureSize] = byte(v.board.drive.ReadShiftRegister())
		atomic.StoreUint64(&v.count, n+1)
	}
	v.ca1 = value
}

func (v *boardVIA) captured() ([]byte, uint64) {
	n := atomic.LoadUint64(&v.count)
	l := n
	if l > captureSize {
		l = captureSize
	}
	ret := make([]byte, 0, l)
	for ix := n - l; ix < n; ix++ {
		ret = append(ret, v.ring[ix%captureSize])
	}
	return ret, n
}

//
type boardBus struct {
	transferUpdates uint64
}

func (i *boardBus) DriveSideDirty() bool  { return false }
func (i *boardBus) UpdateDriveSide()      {}
func (i *boardBus) UpdateTransferStatus() { i.transferUpdates++ }
