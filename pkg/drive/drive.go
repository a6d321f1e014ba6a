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
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
	"github.com/xelalexv/gcrdrive/pkg/format"
)

var (
	ErrInvalidDevice = errors.New("invalid device number")
	ErrMissingChips  = errors.New("drive needs CPU, both VIAs, and IEC bus")
	ErrNoDisk        = errors.New("no disk in drive")
	ErrInsertPending = errors.New("another disk is waiting to be inserted")
	ErrDiskChanging  = errors.New("disk change in progress")

	ErrImageUnavailable = errors.New("disk image not available")
	ErrInvalidImage     = errors.New("disk image corrupted")
)

// Suspender pauses the emulation while a drive's structure is changed from
// outside the emulation loop. Every Suspend is paired with a Resume.
type Suspender interface {
	Suspend()
	Resume()
}

type mutexSuspender struct {
	sync.Mutex
}

func (s *mutexSuspender) Suspend() { s.Lock() }
func (s *mutexSuspender) Resume()  { s.Unlock() }

// Option customizes a drive on construction.
type Option func(d *Drive)

// WithSuspender makes the drive suspend the emulation using s. Without it, a
// drive uses its own mutex, which is only suitable if Execute and VSync are
// guarded by the same suspender.
func WithSuspender(s Suspender) Option {
	return func(d *Drive) {
		d.suspender = s
	}
}

//
func WithConfig(c Config) Option {
	return func(d *Drive) {
		d.config = c
	}
}

// Drive is a VC1541 drive unit: the mechanics, the read/write electronics
// around the UF4 counter, and the disk changing logic. CPU and VIAs are
// external components the drive is wired to.
type Drive struct {
	device    int
	chips     Chips
	notifier  Notifier
	suspender Suspender
	rom       []byte
	config    Config

	// the inserted disk; cleared while no disk is fully inserted
	disk *disk.Disk

	// reset clears everything from here...
	spinning         bool
	redLED           bool
	elapsedTime      int64
	nextClock        int64
	nextCarry        int64
	counterUF4       uint8
	carryCounter     uint64
	byteReadyCounter uint8
	halftrack        int
	offset           int
	zone             int
	readShiftreg     uint16
	writeShiftreg    uint8
	sync             bool
	byteReady        bool
	// ...to here

	insertionStatus   InsertionStatus
	diskChangeCounter int
	diskToInsert      *disk.Disk
}

// New creates drive with given device number, 8 or 9, wired to chips.
// Messages go to n, which may be nil.
func New(device int, chips Chips, n Notifier, opts ...Option) (*Drive, error) {

	if device != 8 && device != 9 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDevice, device)
	}
	if !chips.complete() {
		return nil, ErrMissingChips
	}
	if n == nil {
		n = nopNotifier{}
	}

	d := &Drive{
		device:   device,
		chips:    chips,
		notifier: n,
		config:   DefaultConfig(),
		disk:     disk.New(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.suspender == nil {
		d.suspender = &mutexSuspender{}
	}
	if !d.config.Type.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDriveType, d.config.Type)
	}

	d.reset()
	return d, nil
}

//
func (d *Drive) Device() int {
	return d.device
}

func (d *Drive) suspend() {
	d.suspender.Suspend()
}

func (d *Drive) resume() {
	d.suspender.Resume()
}

// Reset puts the drive into its power-up state. Configuration, the inserted
// disk, and the state of a disk change in progress are kept.
func (d *Drive) Reset() {
	d.suspend()
	defer d.resume()
	d.reset()
}

func (d *Drive) reset() {

	d.spinning = false
	d.redLED = false
	d.elapsedTime = 0
	d.nextClock = 0
	d.nextCarry = 0
	d.counterUF4 = 0
	d.carryCounter = 0
	d.byteReadyCounter = 0
	d.halftrack = 41
	d.offset = 0
	d.zone = 0
	d.readShiftreg = 0
	d.writeShiftreg = 0
	d.sync = false
	d.byteReady = true

	d.chips.CPU.Reset(0xEAA0)
	d.chips.VIA1.Reset()
	d.chips.VIA2.Reset()

	log.WithField("drive", d.device).Debug("drive reset")
}

// IsActive reports whether the drive is connected and switched on. Only
// active drives need to be emulated.
func (d *Drive) IsActive() bool {
	d.suspend()
	defer d.resume()
	return d.config.active()
}

// HasDisk reports whether a disk is fully inserted.
func (d *Drive) HasDisk() bool {
	d.suspend()
	defer d.resume()
	return d.hasDisk()
}

func (d *Drive) hasDisk() bool {
	return d.insertionStatus == FullyInserted
}

//
func (d *Drive) InsertionStatus() InsertionStatus {
	d.suspend()
	defer d.resume()
	return d.insertionStatus
}

// InsertDisk queues dsk for insertion. If a disk is currently inserted, it
// is ejected first. The drive takes ownership of dsk.
func (d *Drive) InsertDisk(dsk *disk.Disk) error {

	if dsk == nil {
		return d.insertFailed(ErrInvalidImage)
	}

	d.suspend()
	defer d.resume()

	if d.diskToInsert != nil {
		return d.insertFailed(ErrInsertPending)
	}

	d.diskToInsert = dsk
	if d.diskChangeCounter == 0 {
		d.diskChangeCounter = 1
	}

	log.WithFields(log.Fields{
		"drive":  d.device,
		"status": d.insertionStatus,
	}).Debug("disk queued for insertion")
	return nil
}

// InsertImage reads a possibly compressed disk image from the reader that
// open returns, and inserts it. Type and compressor are as for
// format.ReadImage. Any failure is reported with MsgDiskInsertFailed.
func (d *Drive) InsertImage(open func() (io.ReadCloser, error),
	name, typ, compressor string, protect bool) error {

	in, err := open()
	if err != nil {
		return d.insertFailed(fmt.Errorf("%w: %v", ErrImageUnavailable, err))
	}

	dsk, err := format.ReadImage(in, name, typ, compressor)
	if err != nil {
		return d.insertFailed(fmt.Errorf("%w: %v", ErrInvalidImage, err))
	}

	dsk.SetWriteProtected(protect)
	return d.InsertDisk(dsk)
}

// InsertNewDisk inserts a freshly formatted disk.
func (d *Drive) InsertNewDisk(name, id string) error {
	img, err := cbmdos.NewBlankImage(name, id)
	if err != nil {
		return d.insertFailed(err)
	}
	return d.insertImage(img)
}

func (d *Drive) insertImage(img *cbmdos.Image) error {
	dsk := disk.New()
	if err := dsk.Encode(img); err != nil {
		return d.insertFailed(err)
	}
	return d.InsertDisk(dsk)
}

func (d *Drive) insertFailed(err error) error {
	d.notifier.Notify(Message{
		Type: MsgDiskInsertFailed, Drive: d.device, Info: err.Error()})
	return err
}

// EjectDisk starts ejecting the inserted disk.
func (d *Drive) EjectDisk() error {

	d.suspend()
	defer d.resume()

	if d.insertionStatus != FullyInserted {
		if d.diskChangeCounter > 0 {
			return ErrDiskChanging
		}
		return ErrNoDisk
	}
	if d.diskToInsert != nil || d.diskChangeCounter > 0 {
		return ErrDiskChanging
	}

	d.diskChangeCounter = 1
	log.WithField("drive", d.device).Debug("disk ejection requested")
	return nil
}

//
func (d *Drive) SetWriteProtected(p bool) error {

	d.suspend()
	defer d.resume()

	if !d.hasDisk() {
		return ErrNoDisk
	}
	if d.disk.IsWriteProtected() == p {
		return nil
	}

	d.disk.SetWriteProtected(p)
	if p {
		d.notify(MsgDiskProtected)
	} else {
		d.notify(MsgDiskUnprotected)
	}
	return nil
}

//
func (d *Drive) ToggleWriteProtection() error {
	d.suspend()
	p := d.hasDisk() && !d.disk.IsWriteProtected()
	d.resume()
	return d.SetWriteProtected(p)
}

// SetModifiedDisk changes the modified flag of the inserted disk. Clearing
// the flag signals that the disk was saved.
func (d *Drive) SetModifiedDisk(m bool) error {

	d.suspend()
	defer d.resume()

	if !d.hasDisk() {
		return ErrNoDisk
	}
	if d.disk.IsModified() == m {
		return nil
	}

	d.disk.SetModified(m)
	if m {
		d.notify(MsgDiskModified)
	} else {
		d.notify(MsgDiskSaved)
	}
	return nil
}

// WithDisk calls fn with the inserted disk while the emulation is
// suspended. fn must not keep a reference to the disk.
func (d *Drive) WithDisk(fn func(dsk *disk.Disk) error) error {

	d.suspend()
	defer d.resume()

	if !d.hasDisk() {
		return ErrNoDisk
	}
	return fn(d.disk)
}

// Info is a snapshot of a drive's status for display.
type Info struct {
	Device         int             `json:"device"`
	Type           DriveType       `json:"type"`
	Connected      bool            `json:"connected"`
	SwitchedOn     bool            `json:"switchedOn"`
	Active         bool            `json:"active"`
	Status         InsertionStatus `json:"insertionStatus"`
	HasDisk        bool            `json:"hasDisk"`
	WriteProtected bool            `json:"writeProtected"`
	Modified       bool            `json:"modified"`
	Halftrack      int             `json:"halftrack"`
	Offset         int             `json:"offset"`
	Zone           int             `json:"zone"`
	Spinning       bool            `json:"spinning"`
	RedLED         bool            `json:"redLED"`
	// level of the SYNC line, which is low while a sync mark passes the head
	Sync           bool            `json:"sync"`
	ReadMode       bool            `json:"readMode"`
}

// Track returns the head position as track number, with .5 for positions
// between two tracks.
func (i *Info) Track() float64 {
	return float64(i.Halftrack+1) / 2
}

//
func (d *Drive) Info() *Info {

	d.suspend()
	defer d.resume()

	return &Info{
		Device:         d.device,
		Type:           d.config.Type,
		Connected:      d.config.Connected,
		SwitchedOn:     d.config.SwitchedOn,
		Active:         d.config.active(),
		Status:         d.insertionStatus,
		HasDisk:        d.hasDisk(),
		WriteProtected: d.hasDisk() && d.disk.IsWriteProtected(),
		Modified:       d.hasDisk() && d.disk.IsModified(),
		Halftrack:      d.halftrack,
		Offset:         d.offset,
		Zone:           d.zone,
		Spinning:       d.spinning,
		RedLED:         d.redLED,
		Sync:           d.sync,
		ReadMode:       d.readMode(),
	}
}

func (d *Drive) notify(t MsgType) {
	d.notifier.Notify(Message{Type: t, Drive: d.device})
}

func (d *Drive) notifyVolume(t MsgType, volume int) {
	d.notifier.Notify(Message{
		Type:      t,
		Drive:     d.device,
		Halftrack: d.halftrack,
		Volume:    volume,
		Pan:       d.config.Pan,
	})
}
