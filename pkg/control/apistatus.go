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
)

//
func (a *api) status(w http.ResponseWriter, req *http.Request) {

	stat := a.getStatus()

	if wantsJSON(req) {
		sendJSONReply(stat, http.StatusOK, w)
	} else {
		sendReply([]byte(stat.String()), http.StatusOK, w)
	}
}

//
func (a *api) getStatus() *Status {
	stat := &Status{Frames: a.daemon.Frames(), Warp: a.daemon.IsWarp()}
	for _, d := range a.getDriveStatus() {
		stat.Add(d)
	}
	return stat
}

//
func (a *api) getDriveStatus() []*DriveStatus {
	var ret []*DriveStatus
	for _, dev := range a.daemon.Devices() {
		if drv, err := a.daemon.GetDrive(dev); err == nil {
			ret = append(ret, newDriveStatus(drv))
		}
	}
	return ret
}
