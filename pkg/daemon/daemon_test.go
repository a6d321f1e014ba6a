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
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/drive"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
	"github.com/xelalexv/gcrdrive/pkg/format/helper"
)

func blankDisk(t *testing.T) *disk.Disk {
	img, err := cbmdos.NewBlankImage("BENCH", "BE")
	if err != nil {
		t.Fatalf("cannot create blank image: %v", err)
	}
	d := disk.New()
	if err := d.Encode(img); err != nil {
		t.Fatalf("cannot encode blank image: %v", err)
	}
	return d
}

func newTestDaemon(t *testing.T, cfg Config) *Daemon {
	d, err := NewDaemon(cfg)
	if err != nil {
		t.Fatalf("cannot create daemon: %v", err)
	}
	return d
}

func TestNewDaemon(t *testing.T) {

	d := newTestDaemon(t, Config{SecondDrive: true})

	if devs := d.Devices(); len(devs) != 2 || devs[0] != 8 || devs[1] != 9 {
		t.Fatalf("unexpected devices: %v", devs)
	}

	drv, err := d.GetDrive(8)
	if err != nil {
		t.Fatalf("drive 8 missing: %v", err)
	}
	if !drv.IsActive() {
		t.Errorf("drive 8 not active")
	}

	if _, err := d.GetDrive(10); !errors.Is(err, drive.ErrInvalidDevice) {
		t.Errorf("expected invalid device error, got %v", err)
	}

	if _, err := NewDaemon(Config{ROM: make([]byte, 100)}); !errors.Is(err, drive.ErrInvalidROM) {
		t.Errorf("expected invalid ROM error, got %v", err)
	}
}

func TestFrameTiming(t *testing.T) {
	if frameDuration < 19*time.Millisecond || frameDuration > 21*time.Millisecond {
		t.Errorf("unexpected frame duration %v", frameDuration)
	}
}

func TestDiskChangeByFrames(t *testing.T) {

	d := newTestDaemon(t, Config{})
	drv, _ := d.GetDrive(8)

	if err := drv.InsertDisk(blankDisk(t)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	d.RunFrames(drive.DiskChangeDelay)
	if drv.HasDisk() || drv.InsertionStatus() != drive.PartiallyInserted {
		t.Fatalf("disk inserted too early")
	}
	d.RunFrames(1)
	if !drv.HasDisk() {
		t.Fatalf("disk not inserted, status %s", drv.InsertionStatus())
	}
	if d.Frames() != drive.DiskChangeDelay+1 {
		t.Errorf("unexpected frame count %d", d.Frames())
	}
}

func TestBenchRead(t *testing.T) {

	d := newTestDaemon(t, Config{})
	drv, _ := d.GetDrive(8)
	drv.InsertDisk(blankDisk(t))
	d.RunFrames(4 * drive.DiskChangeDelay)

	err := d.Bench(8, func(b *Board) error {
		b.SetMotor(true)
		b.SeekTrack(18, disk.SpeedZoneOfTrack(18))
		return nil
	})
	if err != nil {
		t.Fatalf("bench failed: %v", err)
	}
	if drv.Halftrack() != disk.HalftrackOfTrack(18) {
		t.Fatalf("head not on track 18: %d", drv.Halftrack())
	}

	d.RunFrames(3)

	var captured []byte
	var count uint64
	d.Bench(8, func(b *Board) error {
		captured, count = b.Captured()
		b.SetMotor(false)
		return nil
	})

	if count < captureSize || len(captured) != captureSize {
		t.Fatalf("expected full capture buffer, got %d of %d", len(captured), count)
	}
	// GCR encoded header block mark
	if !bytes.Contains(captured, []byte{0x52}) {
		t.Errorf("no header block seen")
	}
	if !bytes.Contains(captured, []byte{0x55, 0x55, 0x55}) {
		t.Errorf("no gap seen")
	}
}

func TestBenchStep(t *testing.T) {

	d := newTestDaemon(t, Config{})
	drv, _ := d.GetDrive(8)
	start := drv.Halftrack()

	d.Bench(8, func(b *Board) error {
		b.Step(3)
		b.Step(-1)
		return nil
	})

	if drv.Halftrack() != start+2 {
		t.Errorf("expected halftrack %d, got %d", start+2, drv.Halftrack())
	}
}

func TestStatusFrame(t *testing.T) {

	m := drive.Message{Type: drive.MsgDriveStep, Drive: 8, Halftrack: 35}
	info := &drive.Info{Spinning: true, HasDisk: true}

	f := statusFrame(m, info)
	want := []byte{byte(drive.MsgDriveStep), 8, 35, FlagMotor | FlagDisk}
	if !bytes.Equal(f, want) {
		t.Errorf("want frame %v, got %v", want, f)
	}

	f = statusFrame(drive.Message{Type: drive.MsgDriveLEDOn, Drive: 9}, &drive.Info{Halftrack: 41})
	if f[2] != 41 {
		t.Errorf("halftrack not taken from drive info: %v", f)
	}
}

type fakePort struct {
	bytes.Buffer
	closed bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestStatusPortReconnect(t *testing.T) {

	port := &fakePort{}
	attempts := 0
	var slept []time.Duration

	s := newStatusPort("test")
	s.open = func(string) (*conduit, error) {
		if attempts++; attempts < 4 {
			return nil, errors.New("no port")
		}
		return &conduit{port: port}, nil
	}
	s.sleep = func(d time.Duration) { slept = append(slept, d) }

	ch := make(chan drive.Message, 2)
	ch <- drive.Message{Type: drive.MsgDriveMotorOn, Drive: 8}
	ch <- drive.Message{Type: drive.MsgDriveMotorOff, Drive: 8}
	close(ch)
	s.serve(ch, nil)

	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
	if len(slept) != 3 || slept[0] != 2*time.Second || slept[2] != 8*time.Second {
		t.Errorf("unexpected backoff: %v", slept)
	}
	if port.Len() != 2*frameLength || !port.closed {
		t.Errorf("expected two frames and closed port, got %d bytes", port.Len())
	}
}

func TestServeAutoSave(t *testing.T) {

	helper.SetBaseDir(t.TempDir())
	defer helper.SetBaseDir("")

	d := newTestDaemon(t, Config{Warp: true, AutoSave: true})
	drv, _ := d.GetDrive(8)

	done := make(chan error)
	go func() { done <- d.Serve() }()

	if err := drv.InsertDisk(blankDisk(t)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for !drv.HasDisk() {
		if time.Now().After(deadline) {
			t.Fatalf("disk not inserted")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := drv.SetModifiedDisk(true); err != nil {
		t.Fatalf("cannot mark disk modified: %v", err)
	}

	d.Stop()
	if err := <-done; err != nil {
		t.Errorf("Serve failed: %v", err)
	}

	dsk, err := helper.AutoLoad(8)
	if err != nil || dsk == nil {
		t.Fatalf("no auto-save after stop: %v", err)
	}
	if !dsk.IsModified() {
		t.Errorf("auto-saved disk not marked modified")
	}
}

func TestServeResumesState(t *testing.T) {

	helper.SetBaseDir(t.TempDir())
	defer helper.SetBaseDir("")

	serve := func(d *Daemon) func() {
		done := make(chan error)
		go func() { done <- d.Serve() }()
		return func() {
			d.Stop()
			if err := <-done; err != nil {
				t.Errorf("Serve failed: %v", err)
			}
		}
	}

	d := newTestDaemon(t, Config{Warp: true, AutoSave: true})
	drv, _ := d.GetDrive(8)
	stop := serve(d)

	if err := drv.InsertDisk(blankDisk(t)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	deadline := time.Now().Add(10 * time.Second)
	for !drv.HasDisk() {
		if time.Now().After(deadline) {
			t.Fatalf("disk not inserted")
		}
		time.Sleep(10 * time.Millisecond)
	}
	stop()

	// the disk is unmodified, so only the drive state carries it
	if dsk, err := helper.AutoLoad(8); dsk != nil || err != nil {
		t.Fatalf("unexpected disk auto-save: %v", err)
	}

	d = newTestDaemon(t, Config{Warp: true, AutoSave: true})
	drv, _ = d.GetDrive(8)
	stop = serve(d)
	deadline = time.Now().Add(10 * time.Second)
	for !drv.HasDisk() {
		if time.Now().After(deadline) {
			t.Fatalf("disk not restored from saved state")
		}
		time.Sleep(10 * time.Millisecond)
	}
	stop()

	err := drv.WithDisk(func(dsk *disk.Disk) error {
		name, id, err := cbmdos.DiskName(dsk)
		if err != nil {
			return err
		}
		if name != "BENCH" || id != "BE" {
			t.Errorf("unexpected disk %q, %q", name, id)
		}
		return nil
	})
	if err != nil {
		t.Errorf("cannot read restored disk: %v", err)
	}
}
