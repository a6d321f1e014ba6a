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

//
func (a *api) eject(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil || checkModified(drv, w, req) {
		return
	}

	if handleDriveError(drv.EjectDisk(), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf(
		"ejecting disk from drive %d", drv.Device())), http.StatusOK, w)
}
