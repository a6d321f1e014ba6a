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
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive"
)

//
const frameLength = 4
const statusBaudRate = 115200

// status flags in the last byte of a status frame
const (
	FlagMotor byte = 1 << iota
	FlagLED
	FlagDisk
	FlagWriteProtected
	FlagModified
)

// conduit is the connection to an indicator board, which mirrors drive
// activity. It is write only.
type conduit struct {
	port io.ReadWriteCloser
}

//
func newConduit(port string) (*conduit, error) {
	ret := &conduit{}
	var err error
	ret.port, err = openPort(port)
	return ret, err
}

//
func openPort(p string) (io.ReadWriteCloser, error) {
	return serial.Open(serial.OpenOptions{
		PortName:        p,
		BaudRate:        statusBaudRate,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
}

//
func (c *conduit) close() error {
	return c.port.Close()
}

//
func (c *conduit) send(data []byte) error {
	_, err := c.port.Write(data)
	return err
}

// statusFrame encodes a drive message for the indicator board as message
// type, device number, halftrack, and status flags.
func statusFrame(m drive.Message, info *drive.Info) []byte {

	var flags byte
	if info != nil {
		if info.Spinning {
			flags |= FlagMotor
		}
		if info.RedLED {
			flags |= FlagLED
		}
		if info.HasDisk {
			flags |= FlagDisk
		}
		if info.WriteProtected {
			flags |= FlagWriteProtected
		}
		if info.Modified {
			flags |= FlagModified
		}
	}

	ht := m.Halftrack
	if ht == 0 && info != nil {
		ht = info.Halftrack
	}

	return []byte{byte(m.Type), byte(m.Drive), byte(ht), flags}
}

// statusPort forwards messages received on ch to the indicator board at
// port until ch is closed. Write errors cause a reconnect.
type statusPort struct {
	name    string
	conduit *conduit
	open    func(port string) (*conduit, error)
	sleep   func(d time.Duration)
}

//
func newStatusPort(name string) *statusPort {
	return &statusPort{name: name, open: newConduit, sleep: time.Sleep}
}

//
func (s *statusPort) serve(ch <-chan drive.Message, info func(dev int) *drive.Info) {

	for m := range ch {

		if s.conduit == nil {
			s.reset()
		}

		var i *drive.Info
		if info != nil {
			i = info(m.Drive)
		}

		if err := s.conduit.send(statusFrame(m, i)); err != nil {
			log.Errorf("error sending status frame: %v", err)
			s.close()
		}
	}

	s.close()
	log.Info("status port stopped")
}

//
func (s *statusPort) close() {
	if s.conduit != nil {
		log.Infof("closing port %s", s.name)
		if err := s.conduit.close(); err != nil {
			log.Errorf("error closing port: %v", err)
		}
		s.conduit = nil
	}
}

// reset (re)opens the port, retrying until it succeeds
func (s *statusPort) reset() {

	s.close()

	maxBackoff := 15 * time.Second

	for backoff := time.Second; ; {
		log.Infof("opening port %s", s.name)
		if con, err := s.open(s.name); err != nil {
			log.Errorf("cannot open serial port: %v", err)
			if backoff < maxBackoff {
				backoff *= 2
			}
			s.sleep(backoff)
		} else {
			s.conduit = con
			return
		}
	}
}
