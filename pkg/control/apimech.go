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

package control

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/xelalexv/gcrdrive/pkg/daemon"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// mechanics settings for the bench board
type mechanics struct {
	motor, motorSet bool
	led, ledSet     bool
	read, readSet   bool
	soe, soeSet     bool
	steps, track    int
	zone            int
	value           int
	capture         bool
}

//
func parseMechanics(req *http.Request) (*mechanics, error) {

	m := &mechanics{zone: -1, value: -1}
	var err error

	if m.motor, m.motorSet, err = getSwitchArg(req, "motor"); err != nil {
		return nil, err
	}
	if m.led, m.ledSet, err = getSwitchArg(req, "led"); err != nil {
		return nil, err
	}
	if m.soe, m.soeSet, err = getSwitchArg(req, "soe"); err != nil {
		return nil, err
	}

	switch mode := strings.ToLower(getArg(req, "mode")); mode {
	case "":
	case "read":
		m.read, m.readSet = true, true
	case "write":
		m.read, m.readSet = false, true
	default:
		return nil, fmt.Errorf("invalid mode: %s", mode)
	}

	if m.steps, err = getIntArg(req, "step", 0); err != nil {
		return nil, err
	}
	if m.track, err = getIntArg(req, "track", 0); err != nil {
		return nil, err
	}
	if m.track != 0 && !disk.IsTrackNumber(m.track) {
		return nil, fmt.Errorf("%w: %d", disk.ErrInvalidTrack, m.track)
	}
	if m.zone, err = getIntArg(req, "zone", -1); err != nil {
		return nil, err
	}
	if m.zone > 3 {
		return nil, fmt.Errorf("invalid speed zone: %d", m.zone)
	}

	if v := getArg(req, "byte"); v != "" {
		b, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte value: %s", v)
		}
		m.value = int(b)
	}

	m.capture = isFlagSet(req, "capture")
	return m, nil
}

// mech operates the bench board of a drive: motor, head, speed zone, LED,
// and the read/write electronics. With capture=true, the most recently read
// bytes are sent back.
func (a *api) mech(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil {
		return
	}

	m, err := parseMechanics(req)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	var captured []byte
	var count uint64

	err = a.daemon.Bench(drv.Device(), func(b *daemon.Board) error {
		if m.motorSet {
			b.SetMotor(m.motor)
		}
		if m.ledSet {
			b.SetLED(m.led)
		}
		if m.soeSet {
			b.SetByteReadyEnabled(m.soe)
		}
		if m.readSet {
			b.SetReadMode(m.read)
		}
		if m.value > -1 {
			b.SetWriteByte(byte(m.value))
		}
		if m.track != 0 {
			zone := m.zone
			if zone < 0 {
				zone = disk.SpeedZoneOfTrack(m.track)
			}
			b.SeekTrack(m.track, zone)
		} else {
			b.Step(m.steps)
			if m.zone > -1 {
				b.SetZone(m.zone)
			}
		}
		if m.capture {
			captured, count = b.Captured()
		}
		return nil
	})
	if handleDriveError(err, w) {
		return
	}

	info := drv.Info()
	var sb strings.Builder
	fmt.Fprintf(&sb, "drive %d: track %.1f, zone %d, motor %v, read mode %v",
		info.Device, info.Track(), info.Zone, info.Spinning, info.ReadMode)

	if m.capture {
		fmt.Fprintf(&sb, "\n%d bytes read, last %d:\n%s", count, len(captured),
			hex.Dump(captured))
	}

	sendReply([]byte(sb.String()), http.StatusOK, w)
}
