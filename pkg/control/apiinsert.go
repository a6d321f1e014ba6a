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

	"github.com/xelalexv/gcrdrive/pkg/format"
	"github.com/xelalexv/gcrdrive/pkg/repo"
)

// insert reads a disk image from the request body, or from the reference
// given with ref=, and inserts it. Image type and compressor are taken from
// the respective arguments, or else from name.
func (a *api) insert(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil || checkModified(drv, w, req) {
		return
	}

	file := getArg(req, "name")
	var open func() (io.ReadCloser, error)

	if ref := getArg(req, "ref"); ref != "" {
		open = func() (io.ReadCloser, error) {
			return repo.Resolve(ref, a.repository)
		}
		if file == "" {
			file = repo.Name(ref)
		}
	} else {
		open = func() (io.ReadCloser, error) {
			return http.MaxBytesReader(w, req.Body, maxImageSize), nil
		}
	}

	name, typ, compressor := format.SplitNameTypeCompressor(file)
	if t := getArg(req, "type"); t != "" {
		typ = t
	}
	if c := getArg(req, "compressor"); c != "" {
		compressor = c
	}

	if handleDriveError(drv.InsertImage(
		open, name, typ, compressor, isFlagSet(req, "protect")), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf(
		"inserting disk into drive %d", drv.Device())), http.StatusOK, w)
}

// newDisk inserts a freshly formatted disk.
func (a *api) newDisk(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil || checkModified(drv, w, req) {
		return
	}

	name := getArg(req, "name")
	if name == "" {
		name = "EMPTY"
	}
	id := getArg(req, "id")
	if id == "" {
		id = "00"
	}
	if len(id) != 2 {
		handleError(fmt.Errorf("disk ID must have two characters"),
			http.StatusUnprocessableEntity, w)
		return
	}

	if handleDriveError(drv.InsertNewDisk(name, id), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf(
		"inserting new disk into drive %d", drv.Device())), http.StatusOK, w)
}
