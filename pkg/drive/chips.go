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

// CPU is the drive's local 6502 core. It keeps its own cycle counter, which
// ExecuteOneCycle advances before executing.
type CPU interface {
	ExecuteOneCycle()
	Cycle() uint64
	// Reset puts the CPU into its power-up state with the program counter
	// at pc.
	Reset(pc uint16)
}

// VIA is one of the drive's two 6522 interface adapters. VIA1 connects to
// the serial bus, VIA2 to the drive mechanics. The drive only uses the lines
// listed here: CA2 (SOE, byte ready enable), CB2 (read/write mode), port A
// (byte to write) and CA1 (byte ready input).
type VIA interface {
	// WakeUpCycle is the CPU cycle at which the VIA next needs to execute.
	WakeUpCycle() uint64
	Execute()
	// Idle is called instead of Execute for cycles the VIA sleeps through.
	Idle()
	Reset()
	CA2() bool
	CB2() bool
	PA() byte
	CA1Action(value bool)
}

// IEC is the drive side of the serial bus.
type IEC interface {
	DriveSideDirty() bool
	UpdateDriveSide()
	UpdateTransferStatus()
}

// Chips bundles the external components a drive is wired to.
type Chips struct {
	CPU  CPU
	VIA1 VIA
	VIA2 VIA
	IEC  IEC
}

func (c *Chips) complete() bool {
	return c.CPU != nil && c.VIA1 != nil && c.VIA2 != nil && c.IEC != nil
}
