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
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

type fakeCPU struct {
	cycle uint64
	pc    uint16
}

func (c *fakeCPU) ExecuteOneCycle() { c.cycle++ }
func (c *fakeCPU) Cycle() uint64    { return c.cycle }
func (c *fakeCPU) Reset(pc uint16)  { c.pc = pc }

type fakeVIA struct {
	ca2      bool
	cb2      bool
	pa       byte
	ca1      bool
	falling  int
	executed int
	idled    int

	// when set, the clock reading at each falling CA1 edge goes into edges
	clock func() uint64
	edges []uint64
}

func (v *fakeVIA) WakeUpCycle() uint64 { return 0 }
func (v *fakeVIA) Execute()            { v.executed++ }
func (v *fakeVIA) Idle()               { v.idled++ }
func (v *fakeVIA) Reset()              {}
func (v *fakeVIA) CA2() bool           { return v.ca2 }
func (v *fakeVIA) CB2() bool           { return v.cb2 }
func (v *fakeVIA) PA() byte            { return v.pa }
func (v *fakeVIA) CA1Action(value bool) {
	if v.ca1 && !value {
		v.falling++
		if v.clock != nil {
			v.edges = append(v.edges, v.clock())
		}
	}
	v.ca1 = value
}

type fakeIEC struct {
	dirty   bool
	updated int
}

func (i *fakeIEC) DriveSideDirty() bool   { return i.dirty }
func (i *fakeIEC) UpdateDriveSide()       { i.updated++; i.dirty = false }
func (i *fakeIEC) UpdateTransferStatus() {}

type recorder struct {
	msgs []Message
}

func (r *recorder) Notify(m Message) {
	r.msgs = append(r.msgs, m)
}

func (r *recorder) count(t MsgType) int {
	n := 0
	for _, m := range r.msgs {
		if m.Type == t {
			n++
		}
	}
	return n
}

type bench struct {
	cpu  *fakeCPU
	via1 *fakeVIA
	via2 *fakeVIA
	iec  *fakeIEC
	rec  *recorder
}

func newTestDrive(t *testing.T) (*Drive, *bench) {
	b := &bench{
		cpu:  &fakeCPU{},
		via1: &fakeVIA{ca1: true},
		via2: &fakeVIA{ca1: true, cb2: true},
		iec:  &fakeIEC{},
		rec:  &recorder{},
	}
	d, err := New(8, Chips{CPU: b.cpu, VIA1: b.via1, VIA2: b.via2, IEC: b.iec}, b.rec)
	if err != nil {
		t.Fatalf("cannot create drive: %v", err)
	}
	return d, b
}

// bit cell in zone 0 is four carry pulses of 1µs
const bitCell = 4 * 10000

func TestNew(t *testing.T) {

	if _, err := New(7, Chips{}, nil); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("expected invalid device error, got %v", err)
	}
	if _, err := New(8, Chips{CPU: &fakeCPU{}}, nil); !errors.Is(err, ErrMissingChips) {
		t.Errorf("expected missing chips error, got %v", err)
	}

	d, b := newTestDrive(t)
	if d.Halftrack() != 41 || b.cpu.pc != 0xEAA0 {
		t.Errorf("unexpected power-up state: halftrack %d, pc %04x",
			d.Halftrack(), b.cpu.pc)
	}
	if d.HasDisk() || d.InsertionStatus() != FullyEjected {
		t.Errorf("new drive must be empty")
	}
}

func TestConfigure(t *testing.T) {

	d, b := newTestDrive(t)

	if err := d.Configure(CfgConnected, 1); !errors.Is(err, ErrROMMissing) {
		t.Fatalf("expected missing ROM error, got %v", err)
	}
	if d.Config().Connected || d.IsActive() {
		t.Fatalf("rejected change was applied")
	}

	if err := d.SetROM(make([]byte, 100)); !errors.Is(err, ErrInvalidROM) {
		t.Errorf("expected invalid ROM error, got %v", err)
	}
	if err := d.SetROM(make([]byte, 0x4000)); err != nil {
		t.Fatalf("SetROM failed: %v", err)
	}
	if err := d.Configure(CfgConnected, 1); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if !d.IsActive() || b.rec.count(MsgDriveConnect) != 1 || b.rec.count(MsgDriveActive) != 1 {
		t.Errorf("drive not activated, messages: %v", b.rec.msgs)
	}

	if err := d.Configure(CfgSwitchedOn, 0); err != nil {
		t.Fatalf("power off failed: %v", err)
	}
	if d.IsActive() || b.rec.count(MsgDriveInactive) != 1 {
		t.Errorf("drive still active")
	}

	if err := d.Configure(CfgType, 7); !errors.Is(err, ErrUnsupportedDriveType) {
		t.Errorf("expected unsupported type error, got %v", err)
	}
	if d.Config().Type != VC1541II {
		t.Errorf("type changed by rejected configuration")
	}

	d.Configure(CfgStepVolume, 150)
	d.Configure(CfgEjectVolume, -3)
	if c := d.Config(); c.StepVolume != 100 || c.EjectVolume != 0 {
		t.Errorf("volumes not clamped: %+v", c)
	}

	if _, err := ParseConfigItem("bogus"); !errors.Is(err, ErrInvalidConfigItem) {
		t.Errorf("expected invalid item error, got %v", err)
	}
	if v, err := ParseConfigValue(CfgType, "vc1541c"); err != nil || v != int(VC1541C) {
		t.Errorf("cannot parse drive type: %d, %v", v, err)
	}
}

func TestByteReadyPeriodicity(t *testing.T) {

	d, b := newTestDrive(t)
	b.via2.ca2 = true
	b.via2.clock = func() uint64 { return d.carryCounter }
	d.SetZone(0)
	d.SetRotating(true)

	bytesToRead := 100
	d.Execute(int64(bytesToRead * 8 * bitCell))

	if !d.sync {
		t.Fatalf("sync line must be high on an empty track")
	}
	if n := b.via2.falling; n < bytesToRead-1 || n > bytesToRead+1 {
		t.Errorf("expected about %d byte ready signals, got %d", bytesToRead, n)
	}
	// one byte is eight bit cells of four carry pulses each
	for ix := 1; ix < len(b.via2.edges); ix++ {
		if gap := b.via2.edges[ix] - b.via2.edges[ix-1]; gap != 32 {
			t.Fatalf("byte ready %d came %d carry pulses after the previous one",
				ix, gap)
		}
	}
	b.via2.clock = nil

	b.via2.falling = 0
	b.via2.ca2 = false
	d.Execute(int64(10 * 8 * bitCell))
	if b.via2.falling != 0 {
		t.Errorf("byte ready signalled while disabled")
	}

	if b.via1.executed == 0 || b.cpu.cycle == 0 {
		t.Errorf("VIAs and CPU not clocked")
	}
}

func TestSyncDetection(t *testing.T) {

	d, b := newTestDrive(t)
	b.via2.ca2 = true
	d.SetZone(0)
	ht := d.Halftrack()
	d.disk.WriteBits(ht, 0, true, d.disk.LengthOfHalftrack(ht))

	d.SetRotating(true)
	d.Execute(int64(20 * bitCell))
	b.via2.falling = 0
	d.Execute(int64(80 * bitCell))

	if !d.SyncDetected() || d.ReadShiftRegister()&0x3FF != 0x3FF {
		t.Errorf("sync not detected, shift register %04x", d.ReadShiftRegister())
	}
	if b.via2.falling != 0 {
		t.Errorf("byte ready signalled during sync")
	}
}

func TestSyncSuppressedWhileWriting(t *testing.T) {

	d, b := newTestDrive(t)
	b.via2.ca2 = true
	b.via2.cb2 = false
	d.SetZone(0)
	ht := d.Halftrack()
	d.disk.WriteBits(ht, 0, true, d.disk.LengthOfHalftrack(ht))

	d.SetRotating(true)
	d.Execute(int64(20 * bitCell))
	b.via2.falling = 0
	d.Execute(int64(80 * bitCell))

	if d.SyncDetected() {
		t.Errorf("sync detected in write mode")
	}
	if n := b.via2.falling; n < 9 || n > 11 {
		t.Errorf("expected byte ready signals while writing, got %d", n)
	}
}

func TestWriteWithoutDisk(t *testing.T) {

	d, b := newTestDrive(t)
	b.via2.cb2 = false
	b.via2.pa = 0xFF
	d.SetRotating(true)
	d.Execute(int64(200 * bitCell))

	if d.disk.NonEmptyHalftracks() != 0 || d.disk.IsModified() {
		t.Errorf("head wrote with no disk inserted")
	}
	if n := b.rec.count(MsgDiskModified); n != 0 {
		t.Errorf("expected no modified message, got %d", n)
	}

	// same while the disk is sliding in
	if err := d.InsertDisk(disk.New()); err != nil {
		t.Fatalf("InsertDisk failed: %v", err)
	}
	ticks(d, DiskChangeDelay)
	if d.InsertionStatus() != PartiallyInserted {
		t.Fatalf("unexpected status %v", d.InsertionStatus())
	}
	d.Execute(int64(200 * bitCell))
	if d.disk.IsModified() || b.rec.count(MsgDiskModified) != 0 {
		t.Errorf("head wrote to a partially inserted disk")
	}
}

func TestMotorOff(t *testing.T) {
	d, b := newTestDrive(t)
	b.via2.ca2 = true
	d.Execute(int64(80 * bitCell))
	if b.via2.falling != 0 || d.offset != 0 {
		t.Errorf("disk moved with motor off")
	}
}

func ticks(d *Drive, n int) {
	for ix := 0; ix < n; ix++ {
		d.VSync()
	}
}

func insertNow(d *Drive, dsk *disk.Disk) {
	d.InsertDisk(dsk)
	ticks(d, 68)
}

func TestWritePath(t *testing.T) {

	d, b := newTestDrive(t)
	insertNow(d, disk.New())
	if !d.HasDisk() {
		t.Fatalf("disk not inserted")
	}

	b.via2.cb2 = false
	b.via2.pa = 0xFF

	d.SetWriteProtected(true)
	d.SetRotating(true)
	d.Execute(int64(100 * bitCell))
	if !d.disk.IsHalftrackEmpty(d.Halftrack()) || d.disk.IsModified() {
		t.Fatalf("write protected disk was written")
	}

	d.SetWriteProtected(false)
	d.Execute(int64(100 * bitCell))
	if d.disk.IsHalftrackEmpty(d.Halftrack()) {
		t.Fatalf("nothing written")
	}
	if b.rec.count(MsgDiskModified) != 1 || !d.Info().Modified {
		t.Errorf("expected one modified message, got %d", b.rec.count(MsgDiskModified))
	}

	d.SetModifiedDisk(false)
	if b.rec.count(MsgDiskSaved) != 1 || d.Info().Modified {
		t.Errorf("disk not marked as saved")
	}
}

func TestHeadMovement(t *testing.T) {

	d, b := newTestDrive(t)

	for ix := 0; ix < 100; ix++ {
		d.MoveHeadUp()
	}
	if d.Halftrack() != disk.HalftrackCount {
		t.Errorf("head beyond last halftrack: %d", d.Halftrack())
	}
	for ix := 0; ix < 100; ix++ {
		d.MoveHeadDown()
	}
	if d.Halftrack() != 1 {
		t.Errorf("head beyond first halftrack: %d", d.Halftrack())
	}
	if n := b.rec.count(MsgDriveStep); n != 43+83 {
		t.Errorf("expected %d step messages, got %d", 43+83, n)
	}

	// halftracks 34 and 35 lie in different speed zones
	for _, start := range []int{0, 1, 999, 4711, 30000, 61000} {
		d.halftrack = 34
		d.offset = start
		d.MoveHeadUp()
		if d.offset >= d.disk.LengthOfHalftrack(35) {
			t.Fatalf("offset %d beyond halftrack length", d.offset)
		}
		d.MoveHeadDown()
		if diff := d.offset - start; diff < -1 || diff > 1 {
			t.Errorf("offset %d returned as %d", start, d.offset)
		}
	}
}

func TestHeadAcrossDiskChange(t *testing.T) {

	d, _ := newTestDrive(t)

	long := disk.New()
	if err := long.SetHalftrack(41, make([]byte, disk.MaxBytesOnTrack),
		disk.MaxBitsOnTrack); err != nil {
		t.Fatalf("SetHalftrack failed: %v", err)
	}
	insertNow(d, long)
	if d.Halftrack() != 41 {
		t.Fatalf("unexpected halftrack %d", d.Halftrack())
	}

	d.offset = 62000
	if err := d.EjectDisk(); err != nil {
		t.Fatalf("EjectDisk failed: %v", err)
	}
	ticks(d, 40)

	l := d.disk.LengthOfHalftrack(41)
	if !d.disk.IsValidHeadPosition(41, d.offset) {
		t.Fatalf("offset %d beyond halftrack length %d", d.offset, l)
	}
	if want := scaleOffset(62000, disk.MaxBitsOnTrack, l); d.offset != want {
		t.Errorf("angular head position lost: offset %d, want %d", d.offset, want)
	}
	if err := d.Restore(d.Snapshot()); err != nil {
		t.Errorf("cannot restore own snapshot: %v", err)
	}

	// and back onto the long track
	d.SetRotating(true)
	d.Execute(int64(1000 * bitCell))
	before := d.offset
	from := d.disk.LengthOfHalftrack(41)
	insertNow(d, long)
	if want := scaleOffset(before, from, disk.MaxBitsOnTrack); d.offset != want {
		t.Errorf("angular head position lost on insert: offset %d, want %d",
			d.offset, want)
	}
	if err := d.Restore(d.Snapshot()); err != nil {
		t.Errorf("cannot restore own snapshot: %v", err)
	}
}

func TestDiskInsertion(t *testing.T) {

	d, b := newTestDrive(t)

	dsk := disk.New()
	dsk.WriteByteAt(1, 0, 0xA5)
	insertNow(d, dsk)

	if d.InsertionStatus() != FullyInserted {
		t.Fatalf("disk not inserted: %v", d.InsertionStatus())
	}
	if d.disk.ReadByteAt(1, 0) != 0xA5 {
		t.Errorf("inserted disk has different contents")
	}
	if b.rec.count(MsgDiskInserted) != 1 {
		t.Errorf("expected one insertion message")
	}
}

func TestDiskSwap(t *testing.T) {

	d, b := newTestDrive(t)
	insertNow(d, disk.New())

	other := disk.New()
	other.WriteByteAt(20, 0, 0x3C)
	if err := d.InsertDisk(other); err != nil {
		t.Fatalf("InsertDisk failed: %v", err)
	}
	if err := d.InsertDisk(disk.New()); !errors.Is(err, ErrInsertPending) {
		t.Errorf("expected pending insert error, got %v", err)
	}

	var seen []InsertionStatus
	last := d.InsertionStatus()
	for ix := 0; ix < 68; ix++ {
		d.VSync()
		if s := d.InsertionStatus(); s != last {
			seen = append(seen, s)
			if s == PartiallyInserted || s == PartiallyEjected {
				if !d.LightBarrier() {
					t.Errorf("light barrier open while %v", s)
				}
			}
			last = s
		}
	}

	want := []InsertionStatus{
		PartiallyEjected, FullyEjected, PartiallyInserted, FullyInserted}
	if len(seen) != len(want) {
		t.Fatalf("unexpected status sequence %v", seen)
	}
	for ix := range want {
		if seen[ix] != want[ix] {
			t.Fatalf("unexpected status sequence %v", seen)
		}
	}

	if d.disk.ReadByteAt(20, 0) != 0x3C {
		t.Errorf("swapped disk has wrong contents")
	}
	if b.rec.count(MsgDiskEjected) != 1 || b.rec.count(MsgDiskInserted) != 2 {
		t.Errorf("unexpected messages: %v", b.rec.msgs)
	}
}

func TestDiskEjection(t *testing.T) {

	d, b := newTestDrive(t)

	if err := d.EjectDisk(); !errors.Is(err, ErrNoDisk) {
		t.Errorf("expected no disk error, got %v", err)
	}

	insertNow(d, disk.New())
	if err := d.EjectDisk(); err != nil {
		t.Fatalf("EjectDisk failed: %v", err)
	}
	if err := d.EjectDisk(); err == nil {
		t.Errorf("second eject accepted")
	}

	ticks(d, 68)

	if d.InsertionStatus() != FullyEjected || d.diskChangeCounter != 0 {
		t.Errorf("unexpected state after eject: %v, counter %d",
			d.InsertionStatus(), d.diskChangeCounter)
	}
	if b.rec.count(MsgDiskEjected) != 1 {
		t.Errorf("expected one eject message, got %d", b.rec.count(MsgDiskEjected))
	}
	if d.disk.NonEmptyHalftracks() != 0 {
		t.Errorf("ejected disk still readable")
	}
}

func TestInsertNewDisk(t *testing.T) {

	d, _ := newTestDrive(t)
	if err := d.InsertNewDisk("EMPTY", "01"); err != nil {
		t.Fatalf("InsertNewDisk failed: %v", err)
	}
	ticks(d, 68)

	err := d.WithDisk(func(dsk *disk.Disk) error {
		info, err := dsk.AnalyzeTrack(18, nil)
		if err != nil {
			return err
		}
		if !info.OK() {
			t.Errorf("directory track has errors: %v", info.Errors())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithDisk failed: %v", err)
	}
}

func TestInsertFailures(t *testing.T) {

	d, b := newTestDrive(t)

	open := func(data []byte) func() (io.ReadCloser, error) {
		return func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	unavailable := func() (io.ReadCloser, error) {
		return nil, errors.New("no such file")
	}

	failed := 0
	expectFailure := func(err, want error) {
		t.Helper()
		failed++
		if !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
		if n := b.rec.count(MsgDiskInsertFailed); n != failed {
			t.Errorf("expected %d insert failed messages, got %d", failed, n)
		}
	}

	expectFailure(d.InsertImage(unavailable, "game", "d64", "", false),
		ErrImageUnavailable)
	expectFailure(d.InsertImage(open([]byte("garbage")), "game", "d64", "", false),
		ErrInvalidImage)
	expectFailure(d.InsertImage(open([]byte("garbage")), "game", "", "", false),
		ErrInvalidImage)
	expectFailure(d.InsertImage(open([]byte("garbage")), "game", "d64", "gzip", false),
		ErrInvalidImage)
	expectFailure(d.InsertDisk(nil), ErrInvalidImage)

	d64 := make([]byte, 174848)
	if err := d.InsertImage(open(d64), "game", "d64", "", true); err != nil {
		t.Fatalf("InsertImage failed: %v", err)
	}
	expectFailure(d.InsertImage(open(d64), "game", "d64", "", false),
		ErrInsertPending)
	expectFailure(d.InsertDisk(disk.New()), ErrInsertPending)

	ticks(d, 68)
	if !d.HasDisk() || !d.Info().WriteProtected {
		t.Errorf("image not inserted write protected: %+v", d.Info())
	}
	for _, m := range b.rec.msgs {
		if m.Type == MsgDiskInsertFailed && strings.TrimSpace(m.Info) == "" {
			t.Errorf("insert failed message without reason")
		}
	}
}

func TestSnapshot(t *testing.T) {

	d, _ := newTestDrive(t)
	insertNow(d, disk.New())
	d.Configure(CfgPan, 30)
	d.MoveHeadUp()
	d.SetRotating(true)
	d.Execute(123456)

	var buf bytes.Buffer
	if err := d.Snapshot().Write(&buf); err != nil {
		t.Fatalf("cannot write state: %v", err)
	}
	want := d.Snapshot()

	d.Reset()
	if d.Halftrack() != 41 || d.IsRotating() {
		t.Errorf("reset did not clear volatile state")
	}
	if d.Config().Pan != 30 || d.InsertionStatus() != FullyInserted {
		t.Errorf("reset cleared persistent state")
	}

	s, err := ReadState(&buf)
	if err != nil {
		t.Fatalf("cannot read state: %v", err)
	}
	if err := d.Restore(s); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := d.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("restored state differs:\n%+v\n%+v", got.Volatile, want.Volatile)
	}

	s.Volatile.Halftrack = 0
	if err := d.Restore(s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}

func TestSnapshotCarriesDisks(t *testing.T) {

	d, _ := newTestDrive(t)
	dsk := disk.New()
	if err := dsk.SetHalftrack(41, bytes.Repeat([]byte{0x5a}, 7000), 55001); err != nil {
		t.Fatalf("SetHalftrack failed: %v", err)
	}
	insertNow(d, dsk)
	d.offset = 55000

	next := disk.New()
	next.WriteByteAt(20, 0, 0x3C)
	if err := d.InsertDisk(next); err != nil {
		t.Fatalf("InsertDisk failed: %v", err)
	}

	var buf bytes.Buffer
	if err := d.Snapshot().Write(&buf); err != nil {
		t.Fatalf("cannot write state: %v", err)
	}
	s, err := ReadState(&buf)
	if err != nil {
		t.Fatalf("cannot read state: %v", err)
	}

	e, _ := newTestDrive(t)
	if err := e.Restore(s); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !e.HasDisk() || e.disk.LengthOfHalftrack(41) != 55001 || e.offset != 55000 {
		t.Fatalf("disk not restored bit precisely: %d bits, offset %d",
			e.disk.LengthOfHalftrack(41), e.offset)
	}

	ticks(e, 68)
	if e.disk.ReadByteAt(20, 0) != 0x3C {
		t.Errorf("waiting disk not restored")
	}

	// a disk is only part of the state while fully inserted
	s.Persistent.InsertionStatus = PartiallyEjected
	if err := e.Restore(s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
	s.Persistent.InsertionStatus = FullyInserted
	s.Persistent.Disk.Lengths[40] = 0
	if err := e.Restore(s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected invalid state error, got %v", err)
	}
}
