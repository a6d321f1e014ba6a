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
	"io"
	"net/http"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

// dump analyzes a halftrack, given either as track= or halftrack=, and
// sends sector layout, analyzer log, and a hex dump of the raw bits. Without
// a track, a summary of all non-empty halftracks is sent.
func (a *api) dump(w http.ResponseWriter, req *http.Request) {

	drv := a.getDrive(w, req)
	if drv == nil {
		return
	}

	t, err := getIntArg(req, "track", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	ht, err := getIntArg(req, "halftrack", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}
	if t != 0 {
		if !disk.IsTrackNumber(t) {
			handleError(fmt.Errorf("%w: %d", disk.ErrInvalidTrack, t),
				http.StatusUnprocessableEntity, w)
			return
		}
		ht = disk.HalftrackOfTrack(t)
	}

	var infos []*disk.TrackInfo
	var raw []byte

	err = drv.WithDisk(func(dsk *disk.Disk) error {
		if ht != 0 {
			info, err := dsk.AnalyzeHalftrack(ht, nil)
			if err != nil {
				return err
			}
			infos = append(infos, info)
			raw, _, err = dsk.Halftrack(ht)
			return err
		}
		for h := 1; h <= disk.HalftrackCount; h++ {
			if dsk.IsHalftrackEmpty(h) {
				continue
			}
			info, err := dsk.AnalyzeHalftrack(h, nil)
			if err != nil {
				return err
			}
			infos = append(infos, info)
		}
		return nil
	})

	if err != nil {
		if ht != 0 && !disk.IsHalftrackNumber(ht) {
			handleError(err, http.StatusUnprocessableEntity, w)
		} else {
			handleDriveError(err, w)
		}
		return
	}

	if wantsJSON(req) {
		sendJSONReply(infos, http.StatusOK, w)
		return
	}

	read, write := io.Pipe()
	go func() {
		for _, info := range infos {
			emitTrackInfo(write, info, raw != nil)
		}
		if raw != nil {
			fmt.Fprintln(write)
			d := hex.Dumper(write)
			d.Write(raw)
			d.Close()
		}
		write.Close()
	}()

	sendStreamReply(read, http.StatusOK, w)
}

//
func emitTrackInfo(w io.Writer, info *disk.TrackInfo, details bool) {

	fmt.Fprintf(w, "halftrack %2d (track %4.1f): %5d bits, %2d syncs, %2d sectors",
		info.Halftrack, float64(info.Halftrack+1)/2, info.Length,
		len(info.SyncMarks), len(info.Sectors))

	bad := 0
	for _, s := range info.Sectors {
		if !s.Err.OK() {
			bad++
		}
	}
	if bad > 0 {
		fmt.Fprintf(w, ", %d bad", bad)
	}
	fmt.Fprintln(w)

	if !details {
		return
	}

	fmt.Fprintln(w)
	for _, s := range info.Sectors {
		fmt.Fprintf(w, "  sector %2d: header at %5d, data at %5d, %s\n",
			s.Sector, s.HeaderBegin, s.DataBegin, s.Err)
	}

	if len(info.Log) > 0 {
		fmt.Fprintln(w)
		for _, l := range info.Log {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}
