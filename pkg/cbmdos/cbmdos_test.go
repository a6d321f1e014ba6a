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

package cbmdos

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

func TestBlankImage(t *testing.T) {

	img, err := NewBlankImage("test disk", "ab")
	if err != nil {
		t.Fatalf("NewBlankImage failed: %v", err)
	}

	if free := img.FreeBlocks(); free != 664 {
		t.Errorf("expected 664 blocks free, got %d", free)
	}
	if id1, id2 := img.DiskID(); id1 != 'A' || id2 != 'B' {
		t.Errorf("wrong disk ID %c%c", id1, id2)
	}

	dir, err := img.Directory()
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if dir.Name != "TEST DISK" || dir.ID != "AB" || len(dir.Entries) != 0 {
		t.Errorf("unexpected directory: %+v", dir)
	}

	if _, err := NewBlankImage("x", "abc"); err == nil {
		t.Errorf("three character ID accepted")
	}
}

func TestAddFile(t *testing.T) {

	data := bytes.Repeat([]byte("0123456789"), 100)
	files := Files{
		{Name: "first", Type: PRG, Data: data},
		{Name: "empty", Type: SEQ},
	}
	for ix := 0; ix < 12; ix++ {
		files = append(files, File{Name: "filler", Type: PRG, Data: []byte{1, 2}})
	}

	img, err := FromCollection("files", "01", files)
	if err != nil {
		t.Fatalf("FromCollection failed: %v", err)
	}

	dir, err := img.Directory()
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if len(dir.Entries) != len(files) {
		t.Fatalf("expected %d entries, got %d", len(files), len(dir.Entries))
	}

	first := dir.Entries[0]
	if first.Name != "FIRST" || first.Type != PRG|flagClosed || first.Blocks != 4 {
		t.Errorf("unexpected entry: %+v", first)
	}
	got, err := img.ReadFile(first.First)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("file contents differ")
	}

	if got, err := img.ReadFile(dir.Entries[1].First); err != nil || len(got) != 0 {
		t.Errorf("empty file read as %d bytes, %v", len(got), err)
	}

	if free := img.FreeBlocks(); free != 664-4-1-12 {
		t.Errorf("unexpected free blocks %d", free)
	}

	var buf bytes.Buffer
	dir.List(&buf)
	if !strings.Contains(buf.String(), "\"FIRST\"") ||
		!strings.Contains(buf.String(), "647 BLOCKS FREE.") {
		t.Errorf("unexpected listing:\n%s", buf.String())
	}
}

func TestDiskFull(t *testing.T) {

	img, _ := NewBlankImage("full", "ff")
	if err := img.AddFile("huge", PRG, make([]byte, 665*254)); !errors.Is(err, ErrDiskFull) {
		t.Errorf("expected disk full error, got %v", err)
	}

	// with the first directory block used up, a failing add must not
	// extend the directory
	for ix := 0; ix < 8; ix++ {
		if err := img.AddFile("small", PRG, []byte{1}); err != nil {
			t.Fatalf("AddFile failed: %v", err)
		}
	}
	before := append([]byte(nil), img.Bytes()...)

	if err := img.AddFile("huge", PRG, make([]byte, 660*254)); !errors.Is(err, ErrDiskFull) {
		t.Errorf("expected disk full error, got %v", err)
	}
	if !bytes.Equal(before, img.Bytes()) {
		t.Errorf("failed add changed the image")
	}
	if dir, err := img.Directory(); err != nil || len(dir.Entries) != 8 {
		t.Errorf("unexpected directory after failed add: %v", err)
	}
}

func TestNonASCIINames(t *testing.T) {

	want := append([]byte("?BC"), bytes.Repeat([]byte{padding}, 13)...)
	if got := petsciiName("äbc", 16); !bytes.Equal(got, want) {
		t.Errorf("unexpected name % x", got)
	}
	if got := petsciiName(strings.Repeat("ü", 20), 16); !bytes.Equal(got,
		bytes.Repeat([]byte{'?'}, 16)) {
		t.Errorf("unexpected long name % x", got)
	}

	img, _ := NewBlankImage("names", "nn")
	if err := img.AddFile("grüne", PRG, []byte{1}); err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	dir, err := img.Directory()
	if err != nil {
		t.Fatalf("Directory failed: %v", err)
	}
	if n := dir.Entries[0].Name; n != "GR?NE" {
		t.Errorf("unexpected name %q", n)
	}
}

func TestParseImage(t *testing.T) {

	if _, err := ParseImage(make([]byte, 1000)); !errors.Is(err, ErrInvalidImageSize) {
		t.Errorf("expected invalid size error, got %v", err)
	}

	data := make([]byte, 175531)
	ix, _ := disk.SectorIndex(3, 4)
	data[174848+ix] = byte(disk.DataBlockChecksum)

	img, err := ParseImage(data)
	if err != nil {
		t.Fatalf("ParseImage failed: %v", err)
	}
	if img.NumberOfTracks() != 35 || !img.HasErrors() {
		t.Fatalf("error info not detected")
	}
	if e := img.ErrorCode(3, 4); e != disk.DataBlockChecksum {
		t.Errorf("unexpected error code %v", e)
	}
	if e := img.ErrorCode(3, 5); e != disk.DiskOK {
		t.Errorf("unexpected error code %v", e)
	}
	if l := len(img.Bytes()); l != 175531 {
		t.Errorf("unexpected image size %d", l)
	}
}

func TestDecode(t *testing.T) {

	img, err := FromCollection("roundtrip", "rt",
		PRGFile("/some/where/demo.prg", []byte("hello world")))
	if err != nil {
		t.Fatalf("FromCollection failed: %v", err)
	}
	img.errors = make([]disk.ErrorCode, 683)
	ix, _ := disk.SectorIndex(1, 7)
	img.errors[ix] = disk.DataBlockNotFound

	d := disk.New()
	if err := d.Encode(img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	dec, err := Decode(d)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if errs := dec.Errors(); len(errs) != 1 || errs[TS{1, 7}] != disk.DataBlockNotFound {
		t.Errorf("unexpected errors: %v", errs)
	}

	dir, err := dec.Directory()
	if err != nil || len(dir.Entries) != 1 || dir.Entries[0].Name != "DEMO" {
		t.Fatalf("unexpected directory %+v, %v", dir, err)
	}
	data, err := dec.ReadFile(dir.Entries[0].First)
	if err != nil || string(data) != "hello world" {
		t.Errorf("file read as '%s', %v", data, err)
	}
}

func TestDiskName(t *testing.T) {

	img, err := NewBlankImage("my disk", "md")
	if err != nil {
		t.Fatalf("NewBlankImage failed: %v", err)
	}
	d := disk.New()
	if err := d.Encode(img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	name, id, err := DiskName(d)
	if err != nil || name != "MY DISK" || id != "MD" {
		t.Errorf("unexpected name '%s', ID '%s', %v", name, id, err)
	}
}
