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
	"bytes"
	"net/http"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
	"github.com/xelalexv/gcrdrive/pkg/format"
)

// save sends the inserted disk as D64 (default) or G64 image, and marks it
// as not modified.
func (a *api) save(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil {
		return
	}

	typ := getArg(req, "type")
	if typ == "" {
		typ = "d64"
	}

	writer, err := format.NewFormat(typ)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	var out bytes.Buffer
	err = drv.WithDisk(func(dsk *disk.Disk) error {
		return writer.Write(dsk, &out)
	})
	if handleDriveError(err, w) {
		return
	}

	drv.SetModifiedDisk(false)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(out.Bytes())
}
