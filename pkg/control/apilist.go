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
	"io"
	"net/http"

	"github.com/xelalexv/gcrdrive/pkg/cbmdos"
	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// list sends the directory of the inserted disk.
func (a *api) list(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil {
		return
	}

	var img *cbmdos.Image
	err := drv.WithDisk(func(dsk *disk.Disk) error {
		var e error
		img, e = cbmdos.Decode(dsk)
		return e
	})
	if handleDriveError(err, w) {
		return
	}

	dir, err := img.Directory()
	if err != nil && dir == nil {
		handleError(fmt.Errorf("cannot read directory: %v", err),
			http.StatusUnprocessableEntity, w)
		return
	}

	if wantsJSON(req) {
		sendJSONReply(dir, http.StatusOK, w)
		return
	}

	read, write := io.Pipe()
	go func() {
		dir.List(write)
		if err != nil {
			fmt.Fprintf(write, "\ndirectory damaged: %v\n", err)
		}
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}
