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
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/drive"
)

// watch is a long poll that returns with the next drive message. Step
// messages are only reported when asked for with steps=true.
func (a *api) watch(w http.ResponseWriter, req *http.Request) {

	timeout, err := strconv.Atoi(req.URL.Query().Get("timeout"))
	if err != nil || timeout < 0 || 1800 < timeout {
		timeout = 600
	}
	steps := isFlagSet(req, "steps")

	log.Infof("starting watch for %s, timeout %d", req.RemoteAddr, timeout)

	msgs, cancel := a.daemon.Subscribe()
	defer cancel()

	expire := time.After(time.Duration(timeout) * time.Second)

	for {
		select {

		case m, ok := <-msgs:
			if !ok {
				sendReply([]byte{}, http.StatusServiceUnavailable, w)
				return
			}
			if m.Type == drive.MsgDriveStep && !steps {
				continue
			}
			log.Infof("sending drive change to %s", req.RemoteAddr)
			sendJSONReply(
				&Change{Message: m, Drives: a.getDriveStatus()}, http.StatusOK, w)
			return

		case <-expire:
			log.Infof("closing watch for %s after timeout", req.RemoteAddr)
			sendReply([]byte{}, http.StatusRequestTimeout, w)
			return

		case <-req.Context().Done():
			log.Infof("watch for %s cancelled", req.RemoteAddr)
			return
		}
	}
}
