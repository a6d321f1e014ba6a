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
)

// protect sets write protection of the inserted disk with state=on|off, or
// toggles it without state.
func (a *api) protect(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil {
		return
	}

	on, set, err := getSwitchArg(req, "state")
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if set {
		err = drv.SetWriteProtected(on)
	} else {
		err = drv.ToggleWriteProtection()
	}
	if handleDriveError(err, w) {
		return
	}

	state := "off"
	if drv.Info().WriteProtected {
		state = "on"
	}
	sendReply([]byte(fmt.Sprintf(
		"write protection for drive %d %s", drv.Device(), state)), http.StatusOK, w)
}
