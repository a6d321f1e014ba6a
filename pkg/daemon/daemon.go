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
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
	"github.com/xelalexv/gcrdrive/pkg/format/helper"
)

//
const (
	FirstDevice = 8
	// PAL timing
	linesPerFrame = 312
	cyclesPerLine = 63
	// length of a host cycle in 1/10 ns
	cycleTime     = 10149
	lineDuration  = cyclesPerLine * cycleTime
	frameDuration = time.Duration(linesPerFrame*lineDuration/10) * time.Nanosecond
	//
	queueCapacity = 256
	blankROMSize  = 0x4000
)

// Config holds the daemon settings.
type Config struct {
	// serial device of the indicator board, empty for none
	StatusPort string
	// drive ROM, a blank ROM is used if nil
	ROM         []byte
	SecondDrive bool
	Warp        bool
	AutoSave    bool
}

// the daemon that hosts the emulated drives
type Daemon struct {
	//
	lock  sync.Mutex
	slots []*slot
	queue *drive.MessageQueue
	//
	statusPort string
	autoSave   bool
	warp       int32
	frames     uint64
	//
	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

//
type slot struct {
	drive *drive.Drive
	board *Board
}

// NewDaemon sets up the drives and connects them. Nothing is emulated until
// Serve is called.
func NewDaemon(cfg Config) (*Daemon, error) {

	d := &Daemon{
		queue:      drive.NewMessageQueue(queueCapacity),
		statusPort: cfg.StatusPort,
		autoSave:   cfg.AutoSave,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	d.SetWarp(cfg.Warp)

	rom := cfg.ROM
	if rom == nil {
		log.Warn("no drive ROM given, using blank ROM")
		rom = make([]byte, blankROMSize)
	}

	count := 1
	if cfg.SecondDrive {
		count = 2
	}

	for dev := FirstDevice; dev < FirstDevice+count; dev++ {
		board := newBoard()
		drv, err := drive.New(dev, board.chips(), d.queue, drive.WithSuspender(d))
		if err != nil {
			return nil, err
		}
		board.attach(drv)
		if err := drv.SetROM(rom); err != nil {
			return nil, err
		}
		if err := drv.Configure(drive.CfgConnected, 1); err != nil {
			return nil, err
		}
		d.slots = append(d.slots, &slot{drive: drv, board: board})
	}

	return d, nil
}

// Suspend pauses the emulation loop, blocking until the current frame is
// finished. Every Suspend needs to be followed by a Resume.
func (d *Daemon) Suspend() {
	d.lock.Lock()
}

//
func (d *Daemon) Resume() {
	d.lock.Unlock()
}

// Devices returns the device numbers of all hosted drives.
func (d *Daemon) Devices() []int {
	ret := make([]int, 0, len(d.slots))
	for _, s := range d.slots {
		ret = append(ret, s.drive.Device())
	}
	return ret
}

//
func (d *Daemon) GetDrive(dev int) (*drive.Drive, error) {
	s, err := d.getSlot(dev)
	if err != nil {
		return nil, err
	}
	return s.drive, nil
}

// Bench calls fn with the bench board of drive dev, while the emulation is
// suspended.
func (d *Daemon) Bench(dev int, fn func(b *Board) error) error {
	s, err := d.getSlot(dev)
	if err != nil {
		return err
	}
	d.Suspend()
	defer d.Resume()
	return fn(s.board)
}

//
func (d *Daemon) getSlot(dev int) (*slot, error) {
	for _, s := range d.slots {
		if s.drive.Device() == dev {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", drive.ErrInvalidDevice, dev)
}

// Subscribe returns a channel receiving all drive messages, and a function
// for ending the subscription.
func (d *Daemon) Subscribe() (<-chan drive.Message, func()) {
	return d.queue.Subscribe()
}

//
func (d *Daemon) SetWarp(on bool) {
	var v int32
	if on {
		v = 1
	}
	atomic.StoreInt32(&d.warp, v)
}

//
func (d *Daemon) IsWarp() bool {
	return atomic.LoadInt32(&d.warp) == 1
}

// Frames returns the number of frames emulated so far.
func (d *Daemon) Frames() uint64 {
	return atomic.LoadUint64(&d.frames)
}

// Serve runs the emulation until Stop is called.
func (d *Daemon) Serve() error {

	defer close(d.stopped)

	msgs, cancel := d.queue.Subscribe()
	pumpDone := make(chan struct{})
	go func() {
		d.pump(msgs)
		close(pumpDone)
	}()

	if d.statusPort != "" {
		status, cancelStatus := d.queue.Subscribe()
		defer cancelStatus()
		go newStatusPort(d.statusPort).serve(status, d.info)
	}

	if d.autoSave {
		d.autoLoad()
	}

	log.WithField("drives", d.Devices()).Info("emulation started")
	d.emulate()
	log.Info("emulation stopped")

	cancel()
	<-pumpDone

	if d.autoSave {
		for _, s := range d.slots {
			d.saveDrive(s.drive)
			d.saveState(s.drive)
		}
	}

	return nil
}

// Stop ends the emulation and waits for Serve to return. It must only be
// called after Serve was started.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() { close(d.done) })
	<-d.stopped
}

//
func (d *Daemon) emulate() {

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		if d.IsWarp() {
			select {
			case <-d.done:
				return
			default:
			}
		} else {
			select {
			case <-d.done:
				return
			case <-ticker.C:
			}
		}
		d.RunFrames(1)
	}
}

// RunFrames emulates n frames right away. Drives that are not active only
// see the vertical sync, which advances disk changes.
func (d *Daemon) RunFrames(n int) {

	active := make([]*slot, 0, len(d.slots))

	for ; n > 0; n-- {

		active = active[:0]
		for _, s := range d.slots {
			if s.drive.IsActive() {
				active = append(active, s)
			}
		}

		d.lock.Lock()
		for line := 0; line < linesPerFrame; line++ {
			for _, s := range active {
				s.drive.Execute(lineDuration)
			}
		}
		for _, s := range d.slots {
			s.drive.VSync()
		}
		d.lock.Unlock()

		atomic.AddUint64(&d.frames, 1)
	}
}

// pump handles drive messages relevant to the daemon itself
func (d *Daemon) pump(msgs <-chan drive.Message) {

	for m := range msgs {

		log.WithFields(log.Fields{
			"drive":     m.Drive,
			"halftrack": m.Halftrack,
		}).Debugf("message: %s", m.Type)

		if !d.autoSave {
			continue
		}

		switch m.Type {

		case drive.MsgDriveMotorOff:
			if drv, err := d.GetDrive(m.Drive); err == nil {
				d.saveDrive(drv)
			}

		case drive.MsgDiskEjected:
			if err := helper.AutoRemove(m.Drive); err != nil {
				log.Errorf("error removing auto-save for drive %d: %v",
					m.Drive, err)
			}
		}
	}
}

// saveDrive auto-saves the disk in drv if it is modified
func (d *Daemon) saveDrive(drv *drive.Drive) {
	err := drv.WithDisk(func(dsk *disk.Disk) error {
		if !dsk.IsModified() {
			return nil
		}
		return helper.AutoSave(drv.Device(), dsk)
	})
	if err != nil && !errors.Is(err, drive.ErrNoDisk) {
		log.Errorf("error auto-saving drive %d: %v", drv.Device(), err)
	}
}

// saveState stores the complete state of drv, so that the next start
// resumes with the head, disk change and disk contents exactly as they are
func (d *Daemon) saveState(drv *drive.Drive) {
	s := drv.Snapshot()
	if err := helper.AutoSaveState(drv.Device(), s.Write); err != nil {
		log.Errorf("error saving state of drive %d: %v", drv.Device(), err)
	}
}

// loadState restores the state saved on the last stop. A state is used only
// once, so that after a crash the drive falls back to the auto-saved disk.
func (d *Daemon) loadState(drv *drive.Drive) bool {

	dev := drv.Device()
	ok, err := helper.AutoLoadState(dev, func(in io.Reader) error {
		s, err := drive.ReadState(in)
		if err != nil {
			return err
		}
		return drv.Restore(s)
	})

	if err != nil {
		log.Errorf("error restoring state of drive %d: %v", dev, err)
	}
	if rmErr := helper.AutoRemoveState(dev); rmErr != nil {
		log.Errorf("error removing state of drive %d: %v", dev, rmErr)
	}
	return ok && err == nil
}

//
func (d *Daemon) autoLoad() {
	for _, s := range d.slots {
		dev := s.drive.Device()
		if d.loadState(s.drive) {
			log.Infof("drive %d resumed from saved state", dev)
			continue
		}
		dsk, err := helper.AutoLoad(dev)
		if err != nil {
			log.Errorf("error loading auto-save for drive %d: %v", dev, err)
			continue
		}
		if dsk != nil {
			if err := s.drive.InsertDisk(dsk); err != nil {
				log.Errorf("error inserting auto-save into drive %d: %v",
					dev, err)
			}
		}
	}
}

//
func (d *Daemon) info(dev int) *drive.Info {
	if drv, err := d.GetDrive(dev); err == nil {
		return drv.Info()
	}
	return nil
}
