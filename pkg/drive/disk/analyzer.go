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

package disk

import (
	"fmt"
	"sort"
)

// SectorInfo describes the blocks of one sector as found on a halftrack.
// Bit positions are -1 for blocks that were not found.
type SectorInfo struct {
	Sector         int
	HeaderBegin    int
	DataBegin      int
	Track          byte
	ID1            byte
	ID2            byte
	HeaderChecksum byte
	DataChecksum   byte
	Data           []byte
	Err            ErrorCode
}

// TrackInfo is the result of analyzing one halftrack.
type TrackInfo struct {
	Halftrack int
	Length    int
	SyncMarks []int
	Sectors   []SectorInfo
	Log       []string
}

// Errors returns the error code of each sector, indexed by sector number.
func (ti *TrackInfo) Errors() []ErrorCode {
	ret := make([]ErrorCode, len(ti.Sectors))
	for ix := range ti.Sectors {
		ret[ix] = ti.Sectors[ix].Err
	}
	return ret
}

// OK reports whether all sectors were read without error.
func (ti *TrackInfo) OK() bool {
	for ix := range ti.Sectors {
		if !ti.Sectors[ix].Err.OK() {
			return false
		}
	}
	return true
}

func (ti *TrackInfo) logf(format string, args ...interface{}) {
	ti.Log = append(ti.Log, fmt.Sprintf(format, args...))
}

// DiskID identifies a disk. Sector headers carrying a different ID are
// reported as ID mismatch.
type DiskID struct {
	ID1, ID2 byte
}

type analyzer struct {
	bits   []byte
	length int
}

func newAnalyzer(d *Disk, ht int) *analyzer {
	a := &analyzer{length: d.length[ht]}
	a.bits = make([]byte, a.length)
	for ix := range a.bits {
		a.bits[ix] = (d.data[ht][ix/8] >> (7 - ix%8)) & 1
	}
	return a
}

func (a *analyzer) bit(pos int) byte {
	return a.bits[pos%a.length]
}

func (a *analyzer) decode(pos int) (byte, bool) {
	var hi, lo byte
	for ix := 0; ix < 5; ix++ {
		hi = hi<<1 | a.bit(pos+ix)
		lo = lo<<1 | a.bit(pos+5+ix)
	}
	return decodeCodes(hi, lo)
}

// syncMarks returns the positions of all blocks following a sync mark of at
// least 10 one bits, in ascending order. Two revolutions are scanned so that
// sync marks crossing the end of the track are found.
func (a *analyzer) syncMarks() []int {
	var ret []int
	seen := make(map[int]bool)
	ones := 0
	for ix := 0; ix < 2*a.length; ix++ {
		if a.bit(ix) == 1 {
			ones++
			continue
		}
		if ones >= 10 {
			if p := ix % a.length; !seen[p] {
				seen[p] = true
				ret = append(ret, p)
			}
		}
		ones = 0
	}
	sort.Ints(ret)
	return ret
}

// AnalyzeTrack analyzes the center halftrack of track t.
func (d *Disk) AnalyzeTrack(t int, id *DiskID) (*TrackInfo, error) {
	if !IsTrackNumber(t) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTrack, t)
	}
	return d.AnalyzeHalftrack(HalftrackOfTrack(t), id)
}

// AnalyzeHalftrack locates sync marks, header and data blocks on halftrack
// ht and verifies them. If id is not nil, headers are also checked against
// it. Halftracks between two tracks have no sectors, only the sync marks are
// reported for them.
func (d *Disk) AnalyzeHalftrack(ht int, id *DiskID) (*TrackInfo, error) {

	if !IsHalftrackNumber(ht) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHalftrack, ht)
	}

	a := newAnalyzer(d, ht)
	t := TrackOfHalftrack(ht)
	info := &TrackInfo{
		Halftrack: ht,
		Length:    a.length,
		SyncMarks: a.syncMarks(),
		Sectors:   make([]SectorInfo, NumberOfSectorsInHalftrack(ht)),
	}
	for s := range info.Sectors {
		info.Sectors[s] = SectorInfo{Sector: s, HeaderBegin: -1, DataBegin: -1}
	}

	if len(info.Sectors) == 0 {
		return info, nil
	}

	marks := info.SyncMarks
	first := -1
	for ix, p := range marks {
		if v, ok := a.decode(p); ok && v == 0x08 {
			first = ix
			break
		}
	}
	if first < 0 {
		info.logf("no header block found")
	}

	pending := -1
	var headers []blockPos
	var orphans []blockPos

	for k := 0; first >= 0 && k < len(marks); k++ {

		p := marks[(first+k)%len(marks)]
		v, ok := a.decode(p)

		switch {
		case ok && v == 0x08:
			pending = -1
			s, okS := a.decode(p + 20)
			if !okS || int(s) >= len(info.Sectors) {
				info.logf("invalid sector number %d in header at %d", s, p)
				continue
			}
			headers = append(headers, blockPos{sector: int(s), pos: p})
			si := &info.Sectors[s]
			if si.HeaderBegin >= 0 {
				info.logf("duplicate header for sector %d at %d", s, p)
				continue
			}
			chk, ok1 := a.decode(p + 10)
			tr, ok2 := a.decode(p + 30)
			id2, ok3 := a.decode(p + 40)
			id1, ok4 := a.decode(p + 50)
			if !(ok1 && ok2 && ok3 && ok4) {
				info.logf("invalid GCR code in header of sector %d at %d", s, p)
				continue
			}
			si.HeaderBegin = p
			si.HeaderChecksum, si.Track, si.ID1, si.ID2 = chk, tr, id1, id2
			pending = int(s)

		case ok && v == 0x07:
			if pending < 0 || info.Sectors[pending].DataBegin >= 0 {
				info.logf("data block without header at %d", p)
				if len(headers) > 0 {
					orphans = append(orphans, blockPos{sector: len(headers) - 1, pos: p})
				}
				continue
			}
			info.Sectors[pending].DataBegin = p
			pending = -1

		default:
			pending = -1
			info.logf("unknown block 0x%02x at %d", v, p)
		}
	}

	orphaned := a.orphanedSectors(headers, orphans, len(info.Sectors))
	if first < 0 {
		for _, p := range marks {
			if v, ok := a.decode(p); ok && v == 0x07 {
				for s := range orphaned {
					orphaned[s] = true
				}
				break
			}
		}
	}

	for s := range info.Sectors {
		a.verify(info, &info.Sectors[s], t, id, orphaned[s])
	}

	return info, nil
}

type blockPos struct {
	sector int
	pos    int
}

// orphanedSectors finds the sectors whose data block is present without a
// readable header. For orphans, sector is the index into headers of the
// preceding header. Sectors are evenly spaced, so an orphan's slot among the
// sectors between two headers follows from its distance to them. Slot 0 is
// the preceding header's own sector.
func (a *analyzer) orphanedSectors(headers, orphans []blockPos, n int) []bool {

	ret := make([]bool, n)
	if len(headers) == 0 {
		return ret
	}

	dist := func(from, to int) int {
		if d := (to - from + a.length) % a.length; d > 0 {
			return d
		}
		return a.length
	}

	for _, o := range orphans {
		prev := headers[o.sector]
		next := headers[(o.sector+1)%len(headers)]
		missing := (next.sector - prev.sector - 1 + n) % n
		if next.sector == prev.sector {
			missing = n - 1
		}
		slot := dist(prev.pos, o.pos) * (missing + 1) / dist(prev.pos, next.pos)
		if slot > missing {
			slot = missing
		}
		ret[(prev.sector+slot)%n] = true
	}

	return ret
}

func (a *analyzer) verify(info *TrackInfo, si *SectorInfo, t int, id *DiskID,
	orphaned bool) {

	si.Data = make([]byte, SectorSize)

	if si.HeaderBegin < 0 {
		if orphaned {
			si.Err = HeaderBlockNotFound
		} else {
			si.Err = NoSyncSequence
		}
		info.logf("sector %d: %v", si.Sector, si.Err)
		return
	}

	switch {
	case int(si.Track) != t:
		si.Err = HeaderBlockNotFound
		info.logf("sector %d: header has track %d", si.Sector, si.Track)
		return
	case si.HeaderChecksum != si.ID1^si.ID2^si.Track^byte(si.Sector):
		si.Err = HeaderBlockChecksum
		info.logf("sector %d: %v", si.Sector, si.Err)
		return
	case id != nil && (si.ID1 != id.ID1 || si.ID2 != id.ID2):
		si.Err = DiskIDMismatch
		info.logf("sector %d: ID %02x%02x, expected %02x%02x",
			si.Sector, si.ID1, si.ID2, id.ID1, id.ID2)
		return
	case si.DataBegin < 0:
		si.Err = DataBlockNotFound
		info.logf("sector %d: %v", si.Sector, si.Err)
		return
	}

	valid := true
	var checksum byte
	for ix := range si.Data {
		v, ok := a.decode(si.DataBegin + 10 + 10*ix)
		valid = valid && ok
		si.Data[ix] = v
		checksum ^= v
	}
	chk, ok := a.decode(si.DataBegin + 10 + 10*SectorSize)
	si.DataChecksum = chk

	if !valid || !ok || chk != checksum {
		si.Err = DataBlockChecksum
		info.logf("sector %d: %v", si.Sector, si.Err)
		return
	}

	si.Err = DiskOK
}
