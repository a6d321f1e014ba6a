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

// All times are in 1/10 ns. The drive CPU runs at 1 MHz. The UF4 counter is
// clocked by a 16 MHz oscillator divided by 16 minus the speed zone, and
// four UF4 carry pulses make one bit cell.
const cycleDuration int64 = 10000

var delayBetweenTwoCarryPulses = [4]int64{
	10000, // zone 0: 16 MHz / 16
	9375,  // zone 1: 16 MHz / 15
	8750,  // zone 2: 16 MHz / 14
	8125,  // zone 3: 16 MHz / 13
}

// Execute advances the drive by duration. CPU/VIA cycles and UF4 carry
// pulses are interleaved in the order they fall due.
func (d *Drive) Execute(duration int64) {

	d.elapsedTime += duration

	for d.nextClock < d.elapsedTime || d.nextCarry < d.elapsedTime {

		if d.nextClock <= d.nextCarry {
			d.executeCycle()
			d.nextClock += cycleDuration

		} else {
			if d.spinning {
				d.executeUF4()
			}
			d.nextCarry += delayBetweenTwoCarryPulses[d.zone]
		}
	}
}

func (d *Drive) executeCycle() {

	cpu := d.chips.CPU
	cpu.ExecuteOneCycle()
	cycle := cpu.Cycle()

	if via := d.chips.VIA1; cycle >= via.WakeUpCycle() {
		via.Execute()
	} else {
		via.Idle()
	}
	if via := d.chips.VIA2; cycle >= via.WakeUpCycle() {
		via.Execute()
	} else {
		via.Idle()
	}

	d.updateByteReady()

	if iec := d.chips.IEC; iec.DriveSideDirty() {
		iec.UpdateDriveSide()
	}
}

func (d *Drive) executeUF4() {

	d.counterUF4++
	d.carryCounter++

	// a flux change on the disk resets UF4, the head is sampled once per
	// bit cell
	if d.carryCounter%4 == 0 {
		if d.readMode() && d.disk.ReadBit(d.halftrack, d.offset) == 1 {
			d.counterUF4 = 0
		}
		d.rotateDisk()
	}

	d.sync = d.readShiftreg&0x3FF != 0x3FF || d.writeMode()
	if !d.sync {
		d.byteReadyCounter = 0
	}

	switch d.counterUF4 & 0x03 {

	case 0x00, 0x01:
		d.updateByteReady()

	case 0x02:
		d.raiseByteReady()

		if d.sync {
			d.byteReadyCounter = (d.byteReadyCounter + 1) % 8
		} else {
			d.byteReadyCounter = 0
		}

		// without a fully inserted disk, the head has nothing to write to
		if d.writeMode() && d.hasDisk() && !d.LightBarrier() {
			d.writeBitToHead(d.writeShiftreg&0x80 != 0)
		}
		d.writeShiftreg <<= 1

		d.readShiftreg <<= 1
		if d.counterUF4&0x0C == 0 {
			d.readShiftreg |= 1
		}

	case 0x03:
		if d.byteReadyCounter == 7 {
			d.writeShiftreg = d.chips.VIA2.PA()
		}
	}
}

func (d *Drive) rotateDisk() {
	if d.offset++; d.offset >= d.disk.LengthOfHalftrack(d.halftrack) {
		d.offset = 0
	}
}

func (d *Drive) writeBitToHead(bit bool) {
	clean := !d.disk.IsModified()
	d.disk.WriteBit(d.halftrack, d.offset, bit)
	if clean {
		d.notify(MsgDiskModified)
	}
}

// byte ready is active low, and only asserted while enabled via VIA2 CA2
func (d *Drive) updateByteReady() {
	br := !(d.chips.VIA2.CA2() && d.counterUF4&0x02 == 0 && d.byteReadyCounter == 7)
	if br != d.byteReady {
		d.byteReady = br
		d.chips.VIA2.CA1Action(br)
	}
}

func (d *Drive) raiseByteReady() {
	if !d.byteReady {
		d.byteReady = true
		d.chips.VIA2.CA1Action(true)
	}
}

func (d *Drive) readMode() bool {
	return d.chips.VIA2.CB2()
}

func (d *Drive) writeMode() bool {
	return !d.readMode()
}

// LightBarrier reports whether the write protect sense light barrier is
// blocked. This is the case while a disk slides in or out, and while a
// write protected disk is inserted.
func (d *Drive) LightBarrier() bool {
	switch d.insertionStatus {
	case PartiallyInserted, PartiallyEjected:
		return true
	case FullyInserted:
		return d.disk.IsWriteProtected()
	}
	return false
}

// ReadShiftRegister returns the 16 bit read shift register. Its low byte is
// what the drive CPU reads from VIA2 port A once a byte is ready.
func (d *Drive) ReadShiftRegister() uint16 {
	return d.readShiftreg
}

// SyncDetected reports whether the read electronics see a sync mark.
func (d *Drive) SyncDetected() bool {
	return !d.sync
}

//
func (d *Drive) ByteReady() bool {
	return d.byteReady
}
