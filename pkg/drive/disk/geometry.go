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

// Physical layout of a 1541 disk. Tracks are 1-indexed and run from 1 to 42,
// halftracks from 1 to 84, where halftrack 2t-1 is the center of track t.
const (
	TrackCount      = 42
	HalftrackCount  = 84
	MaxBytesOnTrack = 7928
	MaxBitsOnTrack  = 8 * MaxBytesOnTrack

	SectorSize = 256
)

type zoneGeom struct {
	firstTrack    int
	lastTrack     int
	sectors       int
	zone          int
	lengthInBytes int
	// sector-linear index of the zone's first sector
	sectorOffset int
}

var zones = [4]zoneGeom{
	{1, 17, 21, 3, 7693, 0},
	{18, 24, 19, 2, 7143, 357},
	{25, 30, 18, 1, 6667, 490},
	{31, 42, 17, 0, 6250, 598},
}

// tail gap lengths in bytes after even and odd sectors, per speed zone
var tailGaps = [4][2]int{
	{13, 14}, // zone 0, 17 sectors
	{15, 17}, // zone 1, 18 sectors
	{19, 24}, // zone 2, 19 sectors
	{11, 13}, // zone 3, 21 sectors
}

func zoneOf(t int) *zoneGeom {
	for ix := range zones {
		if zones[ix].firstTrack <= t && t <= zones[ix].lastTrack {
			return &zones[ix]
		}
	}
	return nil
}

//
func IsTrackNumber(t int) bool {
	return 1 <= t && t <= TrackCount
}

//
func IsHalftrackNumber(ht int) bool {
	return 1 <= ht && ht <= HalftrackCount
}

// TrackOfHalftrack returns the track a halftrack belongs to; halftrack 2t
// sits between tracks t and t+1 and is accounted to t.
func TrackOfHalftrack(ht int) int {
	return (ht + 1) / 2
}

//
func HalftrackOfTrack(t int) int {
	return 2*t - 1
}

// NumberOfSectorsInTrack returns 0 for invalid track numbers.
func NumberOfSectorsInTrack(t int) int {
	if z := zoneOf(t); z != nil {
		return z.sectors
	}
	return 0
}

// NumberOfSectorsInHalftrack returns 0 for halftracks between two tracks.
func NumberOfSectorsInHalftrack(ht int) int {
	if !IsHalftrackNumber(ht) || ht%2 == 0 {
		return 0
	}
	return NumberOfSectorsInTrack(TrackOfHalftrack(ht))
}

// SpeedZoneOfTrack returns the default speed zone 0 to 3, -1 for invalid
// track numbers.
func SpeedZoneOfTrack(t int) int {
	if z := zoneOf(t); z != nil {
		return z.zone
	}
	return -1
}

//
func SpeedZoneOfHalftrack(ht int) int {
	if !IsHalftrackNumber(ht) {
		return -1
	}
	return SpeedZoneOfTrack(TrackOfHalftrack(ht))
}

//
func IsValidTrackSectorPair(t, s int) bool {
	return s >= 0 && s < NumberOfSectorsInTrack(t)
}

//
func IsValidHalftrackSectorPair(ht, s int) bool {
	return s >= 0 && s < NumberOfSectorsInHalftrack(ht)
}

// DefaultLengthOfTrack returns the nominal track length in bits.
func DefaultLengthOfTrack(t int) int {
	if z := zoneOf(t); z != nil {
		return 8 * z.lengthInBytes
	}
	return 0
}

// NumberOfSectors returns the total number of sectors on a disk with given
// number of tracks.
func NumberOfSectors(tracks int) int {
	if tracks < 1 {
		return 0
	}
	if tracks > TrackCount {
		tracks = TrackCount
	}
	ix, _ := SectorIndex(tracks, 0)
	return ix + NumberOfSectorsInTrack(tracks)
}

// SectorIndex returns the sector-linear index of t/s as used in D64 images.
func SectorIndex(t, s int) (int, error) {
	if !IsValidTrackSectorPair(t, s) {
		return 0, ErrInvalidSector
	}
	z := zoneOf(t)
	return z.sectorOffset + (t-z.firstTrack)*z.sectors + s, nil
}

// TailGaps returns the tail gap lengths after even and odd sectors for the
// speed zone of track t.
func TailGaps(t int) (even, odd int) {
	z := SpeedZoneOfTrack(t)
	if z < 0 {
		return 0, 0
	}
	return tailGaps[z][0], tailGaps[z][1]
}
