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
	"fmt"
	"net/http"

	"github.com/xelalexv/gcrdrive/pkg/drive"
)

// config changes one configuration item of a drive, given as item= and
// value=. Without item, the current configuration is sent.
func (a *api) config(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil {
		return
	}

	if getArg(req, "item") == "" {
		cfg := drv.Config()
		if wantsJSON(req) {
			sendJSONReply(&cfg, http.StatusOK, w)
		} else {
			sendReply([]byte(fmt.Sprintf("%+v", cfg)), http.StatusOK, w)
		}
		return
	}

	item, err := drive.ParseConfigItem(getArg(req, "item"))
	if handleDriveError(err, w) {
		return
	}

	value, err := drive.ParseConfigValue(item, getArg(req, "value"))
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if handleDriveError(drv.Configure(item, value), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("configured drive %d: %s = %s",
		drv.Device(), getArg(req, "item"), getArg(req, "value"))),
		http.StatusOK, w)
}
