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
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

type ts struct {
	t, s int
}

type testSource struct {
	tracks int
	id1    byte
	id2    byte
	data   map[ts][]byte
	errs   map[ts]ErrorCode
}

func newTestSource(tracks int, random bool) *testSource {
	src := &testSource{
		tracks: tracks,
		id1:    'Q',
		id2:    'X',
		data:   make(map[ts][]byte),
		errs:   make(map[ts]ErrorCode),
	}
	if random {
		rnd := rand.New(rand.NewSource(1541))
		for t := 1; t <= tracks; t++ {
			for s := 0; s < NumberOfSectorsInTrack(t); s++ {
				b := make([]byte, SectorSize)
				rnd.Read(b)
				src.data[ts{t, s}] = b
			}
		}
	}
	return src
}

func (src *testSource) NumberOfTracks() int    { return src.tracks }
func (src *testSource) DiskID() (byte, byte)   { return src.id1, src.id2 }
func (src *testSource) Sector(t, s int) []byte { return src.data[ts{t, s}] }
func (src *testSource) ErrorCode(t, s int) ErrorCode {
	if e, ok := src.errs[ts{t, s}]; ok {
		return e
	}
	return DiskOK
}

func TestGCRBijection(t *testing.T) {

	valid := 0
	for code := 0; code < 32; code++ {
		if IsGCR(byte(code)) {
			valid++
		}
	}
	if valid != 16 {
		t.Fatalf("expected 16 valid code words, got %d", valid)
	}

	for n := 0; n < 16; n++ {
		if got := GCR2Bin(Bin2GCR(byte(n))); got != byte(n) {
			t.Errorf("nibble %d decodes to %d", n, got)
		}
	}

	if GCR2Bin(0x00) != InvalidGCR || GCR2Bin(0x1F) != InvalidGCR {
		t.Errorf("invalid code words not rejected")
	}
}

func TestGCRByteCoding(t *testing.T) {
	d := New()
	for v := 0; v < 256; v++ {
		d.EncodeGCR(5, 10*v, byte(v))
	}
	for v := 0; v < 256; v++ {
		got, ok := d.DecodeGCR(5, 10*v)
		if !ok || got != byte(v) {
			t.Fatalf("byte 0x%02x decoded as 0x%02x, ok %v", v, got, ok)
		}
	}
}

func TestClearedDisk(t *testing.T) {
	d := New()
	if d.IsModified() || d.IsWriteProtected() {
		t.Fatalf("cleared disk must be neither modified nor write protected")
	}
	for _, ht := range []int{1, 2, 35, 83, 84} {
		if d.ReadBit(ht, 1234) != 0 {
			t.Errorf("halftrack %d not cleared", ht)
		}
		if l := d.LengthOfHalftrack(ht); l != DefaultLengthOfTrack(TrackOfHalftrack(ht)) {
			t.Errorf("unexpected length %d for halftrack %d", l, ht)
		}
	}
	if d.NonEmptyHalftracks() != 0 || d.HighestNonEmptyTrack() != 0 {
		t.Errorf("cleared disk reports data")
	}
}

func TestBitWrap(t *testing.T) {

	d := New()
	ht := 36
	l := d.LengthOfHalftrack(ht)

	d.WriteBit(ht, -1, true)
	if d.ReadBit(ht, l-1) != 1 {
		t.Errorf("position -1 does not wrap to %d", l-1)
	}

	d.WriteBit(ht, l+3, true)
	if d.ReadBit(ht, 3) != 1 {
		t.Errorf("position %d does not wrap to 3", l+3)
	}

	if d.ReadBit(ht, 2*l+3) != d.ReadBit(ht, 3) {
		t.Errorf("reads at equivalent positions differ")
	}

	if !d.IsModified() {
		t.Errorf("write did not set modified flag")
	}
}

func TestWriteGap(t *testing.T) {
	d := New()
	d.WriteGap(1, 100, 4)
	for ix := 0; ix < 4; ix++ {
		if b := d.ReadByteAt(1, 100+8*ix); b != 0x55 {
			t.Errorf("gap byte %d is 0x%02x", ix, b)
		}
	}
	if b := d.ReadByteAt(1, 132); b != 0 {
		t.Errorf("gap overruns: 0x%02x", b)
	}
}

func TestInvalidHalftrackPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("no panic for halftrack 85")
		}
	}()
	New().ReadBit(85, 0)
}

func TestSetHalftrack(t *testing.T) {

	d := New()
	data := []byte{0xde, 0xad, 0xbe, 0xef}

	if err := d.SetHalftrack(0, data, 32); !errors.Is(err, ErrInvalidHalftrack) {
		t.Errorf("expected invalid halftrack error, got %v", err)
	}
	if err := d.SetHalftrack(3, data, 40); !errors.Is(err, ErrTrackTooLong) {
		t.Errorf("expected track too long error, got %v", err)
	}
	if err := d.SetHalftrack(3, data, 30); err != nil {
		t.Fatalf("SetHalftrack failed: %v", err)
	}

	got, bits, err := d.Halftrack(3)
	if err != nil {
		t.Fatalf("Halftrack failed: %v", err)
	}
	if bits != 30 || !bytes.Equal(got, data) {
		t.Errorf("unexpected halftrack contents: %d bits, %x", bits, got)
	}
	if d.ReadBit(3, 30) != d.ReadBit(3, 0) {
		t.Errorf("short halftrack does not wrap")
	}
}

func TestDiskState(t *testing.T) {

	d := New()
	if err := d.Encode(newTestSource(35, true)); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	// odd bit length, which byte based image formats cannot represent
	if err := d.SetHalftrack(36, bytes.Repeat([]byte{0xa5}, 7000), 55555); err != nil {
		t.Fatalf("SetHalftrack failed: %v", err)
	}
	d.SetWriteProtected(true)
	d.SetModified(true)

	c, err := FromState(d.State())
	if err != nil {
		t.Fatalf("FromState failed: %v", err)
	}
	if *c != *d {
		t.Errorf("disk restored from state differs")
	}
	if c.LengthOfHalftrack(36) != 55555 || !c.IsValidHeadPosition(36, 55554) ||
		c.IsValidHeadPosition(36, 55555) {
		t.Errorf("bit length not kept: %d", c.LengthOfHalftrack(36))
	}

	s := d.State()
	s.Lengths = s.Lengths[1:]
	if _, err := FromState(s); !errors.Is(err, ErrInvalidDiskState) {
		t.Errorf("expected invalid disk state error, got %v", err)
	}
	s = d.State()
	s.Lengths[10] = MaxBitsOnTrack + 1
	if _, err := FromState(s); !errors.Is(err, ErrInvalidDiskState) {
		t.Errorf("expected invalid disk state error, got %v", err)
	}
}

func TestSingleSector(t *testing.T) {

	d := New()
	src := newTestSource(1, false)

	n, err := d.EncodeSector(src, 1, 0, 0, 11)
	if err != nil {
		t.Fatalf("EncodeSector failed: %v", err)
	}
	if n != 8*(354+11) {
		t.Errorf("unexpected sector size %d bits", n)
	}

	info, err := d.AnalyzeTrack(1, nil)
	if err != nil {
		t.Fatalf("AnalyzeTrack failed: %v", err)
	}

	s0 := info.Sectors[0]
	if s0.Err != DiskOK {
		t.Fatalf("sector 0 has error %v, log: %v", s0.Err, info.Log)
	}
	if s0.HeaderChecksum != 1^0^src.id1^src.id2 {
		t.Errorf("wrong header checksum 0x%02x", s0.HeaderChecksum)
	}
	if s0.DataChecksum != 0 {
		t.Errorf("wrong data checksum 0x%02x", s0.DataChecksum)
	}
	if !bytes.Equal(s0.Data, make([]byte, SectorSize)) {
		t.Errorf("payload not zero")
	}
	if s0.ID1 != src.id1 || s0.ID2 != src.id2 || s0.Track != 1 {
		t.Errorf("wrong header fields: %+v", s0)
	}

	for s := 1; s < len(info.Sectors); s++ {
		if info.Sectors[s].Err != NoSyncSequence {
			t.Errorf("sector %d: expected no sync, got %v", s, info.Sectors[s].Err)
		}
	}
}

func TestTrackLengths(t *testing.T) {
	d := New()
	src := newTestSource(TrackCount, false)
	for tr := 1; tr <= TrackCount; tr++ {
		even, odd := TailGaps(tr)
		n, err := d.EncodeTrack(src, tr, even, odd, 0)
		if err != nil {
			t.Fatalf("track %d: %v", tr, err)
		}
		if n > DefaultLengthOfTrack(tr) {
			t.Errorf("track %d: %d bits exceed default length %d", tr, n,
				DefaultLengthOfTrack(tr))
		}
		if d.LengthOfTrack(tr) != n || d.LengthOfHalftrack(2*tr) != n {
			t.Errorf("track %d: halftrack lengths not set", tr)
		}
	}

	if _, err := d.EncodeTrack(src, 1, 100, 100, 0); !errors.Is(err, ErrTrackTooLong) {
		t.Errorf("expected track too long error, got %v", err)
	}
	if _, err := d.EncodeTrack(src, 43, 10, 10, 0); !errors.Is(err, ErrInvalidTrack) {
		t.Errorf("expected invalid track error, got %v", err)
	}
	if _, err := d.EncodeSector(src, 20, 19, 0, 10); !errors.Is(err, ErrInvalidSector) {
		t.Errorf("expected invalid sector error, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {

	src := newTestSource(35, true)
	d := New()
	if err := d.Encode(src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if d.IsModified() {
		t.Errorf("freshly encoded disk marked as modified")
	}

	size, _, err := d.DecodeDisk(nil)
	if err != nil || size != 174848 {
		t.Fatalf("dry run: size %d, error %v", size, err)
	}

	dest := make([]byte, size)
	n, errs, err := d.DecodeDisk(dest)
	if err != nil {
		t.Fatalf("DecodeDisk failed: %v", err)
	}
	if n != size || len(errs) != 683 {
		t.Fatalf("decoded %d bytes, %d error codes", n, len(errs))
	}

	for tr := 1; tr <= 35; tr++ {
		for s := 0; s < NumberOfSectorsInTrack(tr); s++ {
			ix, _ := SectorIndex(tr, s)
			if errs[ix] != DiskOK {
				t.Errorf("%d/%d: %v", tr, s, errs[ix])
			}
			if !bytes.Equal(dest[ix*SectorSize:(ix+1)*SectorSize], src.data[ts{tr, s}]) {
				t.Errorf("%d/%d: data differs", tr, s)
			}
		}
	}
}

func TestStaggeredEncoding(t *testing.T) {

	src := newTestSource(35, true)
	d := New()
	err := d.Encode(src, WithStagger(func(t int) float64 { return float64(t) * 0.25 }))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	for _, c := range []struct{ track, quarter int }{{1, 1}, {2, 2}, {4, 0}, {7, 3}} {
		info, err := d.AnalyzeTrack(c.track, nil)
		if err != nil {
			t.Fatalf("AnalyzeTrack failed: %v", err)
		}
		if !info.OK() {
			t.Errorf("track %d: errors %v", c.track, info.Errors())
		}
		want := c.quarter * info.Length / 4
		if got := info.Sectors[0].HeaderBegin; got < want || got > want+syncBits {
			t.Errorf("track %d: sector 0 header at %d, want about %d",
				c.track, got, want)
		}
	}

	aligned := New()
	if err := aligned.Encode(src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	size, _, _ := aligned.DecodeDisk(nil)
	bufA, bufB := make([]byte, size), make([]byte, size)
	if _, _, err := aligned.DecodeDisk(bufA); err != nil {
		t.Fatalf("DecodeDisk failed: %v", err)
	}
	if _, _, err := d.DecodeDisk(bufB); err != nil {
		t.Fatalf("DecodeDisk failed: %v", err)
	}
	if !bytes.Equal(bufA, bufB) {
		t.Errorf("staggered disk decodes differently")
	}
}

func TestDecodeTrackSize(t *testing.T) {
	d := New()
	if n, _, err := d.DecodeTrack(18, nil); err != nil || n != 19*SectorSize {
		t.Errorf("dry run for track 18: %d, %v", n, err)
	}
	if _, _, err := d.DecodeTrack(1, make([]byte, 10)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("expected short buffer error, got %v", err)
	}
	if d.DecodedTracks() != 35 {
		t.Errorf("blank disk should decode to 35 tracks")
	}
}

func TestErrorReproduction(t *testing.T) {

	src := newTestSource(35, true)
	want := map[ts]ErrorCode{
		{2, 3}:  HeaderBlockNotFound,
		{3, 5}:  NoSyncSequence,
		{4, 1}:  DataBlockNotFound,
		{5, 7}:  DataBlockChecksum,
		{6, 2}:  HeaderBlockChecksum,
		{7, 4}:  DiskIDMismatch,
		{20, 0}: DataBlockChecksum,
	}
	for k, v := range want {
		src.errs[k] = v
	}

	d := New()
	if err := d.Encode(src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	dest := make([]byte, 174848)
	_, errs, err := d.DecodeDisk(dest)
	if err != nil {
		t.Fatalf("DecodeDisk failed: %v", err)
	}

	for tr := 1; tr <= 35; tr++ {
		for s := 0; s < NumberOfSectorsInTrack(tr); s++ {
			ix, _ := SectorIndex(tr, s)
			exp, ok := want[ts{tr, s}]
			if !ok {
				exp = DiskOK
			}
			if errs[ix] != exp {
				t.Errorf("%d/%d: expected %v, got %v", tr, s, exp, errs[ix])
			}
		}
	}

	ix, _ := SectorIndex(2, 3)
	if !bytes.Equal(dest[ix*SectorSize:(ix+1)*SectorSize], make([]byte, SectorSize)) {
		t.Errorf("unreadable sector not zero filled")
	}
}

func TestMissingHeaderKinds(t *testing.T) {

	src := newTestSource(35, true)
	want := map[int]ErrorCode{
		0:  HeaderBlockNotFound,
		3:  HeaderBlockNotFound,
		4:  HeaderBlockNotFound,
		8:  NoSyncSequence,
		20: NoSyncSequence,
	}
	for s, e := range want {
		src.errs[ts{2, s}] = e
	}

	d := New()
	if err := d.Encode(src); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	info, err := d.AnalyzeTrack(2, nil)
	if err != nil {
		t.Fatalf("AnalyzeTrack failed: %v", err)
	}
	for s, got := range info.Errors() {
		exp, ok := want[s]
		if !ok {
			exp = DiskOK
		}
		if got != exp {
			t.Errorf("sector %d: expected %v, got %v", s, exp, got)
		}
	}
}

func TestGeometry(t *testing.T) {
	for _, c := range []struct{ tracks, sectors int }{
		{35, 683}, {40, 768}, {42, 802},
	} {
		if n := NumberOfSectors(c.tracks); n != c.sectors {
			t.Errorf("%d tracks: expected %d sectors, got %d", c.tracks, c.sectors, n)
		}
	}
	if ix, err := SectorIndex(18, 0); err != nil || ix != 357 {
		t.Errorf("18/0 at %d, %v", ix, err)
	}
	if SpeedZoneOfHalftrack(1) != 3 || SpeedZoneOfHalftrack(84) != 0 {
		t.Errorf("wrong speed zones")
	}
	if IsValidHalftrackSectorPair(2, 0) || !IsValidHalftrackSectorPair(35, 18) {
		t.Errorf("wrong halftrack/sector validation")
	}
}
