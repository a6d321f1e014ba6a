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

package helper

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/xelalexv/gcrdrive/pkg/drive/disk"
)

func TestAutoSave(t *testing.T) {

	SetBaseDir(t.TempDir())
	defer SetBaseDir("")

	if d, err := AutoLoad(8); d != nil || err != nil {
		t.Fatalf("expected no auto-save, got %v, %v", d, err)
	}

	d := disk.New()
	d.WriteByteAt(1, 0, 0xC3)
	d.SetWriteProtected(true)

	if err := AutoSave(8, d); err != nil {
		t.Fatalf("AutoSave failed: %v", err)
	}

	l, err := AutoLoad(8)
	if err != nil || l == nil {
		t.Fatalf("AutoLoad failed: %v", err)
	}
	if l.ReadByteAt(1, 0) != 0xC3 || !l.IsModified() || !l.IsWriteProtected() {
		t.Errorf("auto-saved disk differs")
	}

	if err := AutoRemove(8); err != nil {
		t.Fatalf("AutoRemove failed: %v", err)
	}
	if d, err := AutoLoad(8); d != nil || err != nil {
		t.Errorf("auto-save not removed")
	}
}

func TestAutoSaveState(t *testing.T) {

	SetBaseDir(t.TempDir())
	defer SetBaseDir("")

	var got string
	read := func(in io.Reader) error {
		b, err := io.ReadAll(in)
		got = string(b)
		return err
	}

	if ok, err := AutoLoadState(9, read); ok || err != nil {
		t.Fatalf("expected no saved state, got %v, %v", ok, err)
	}

	err := AutoSaveState(9, func(out io.Writer) error {
		_, err := io.WriteString(out, "{\"state\":1}")
		return err
	})
	if err != nil {
		t.Fatalf("AutoSaveState failed: %v", err)
	}

	// a failing write keeps the previous state
	broken := errors.New("broken")
	if err := AutoSaveState(9, func(out io.Writer) error {
		io.WriteString(out, "partial")
		return broken
	}); !errors.Is(err, broken) {
		t.Errorf("expected write error, got %v", err)
	}

	if ok, err := AutoLoadState(9, read); !ok || err != nil {
		t.Fatalf("AutoLoadState failed: %v, %v", ok, err)
	}
	if !strings.Contains(got, "state") {
		t.Errorf("unexpected state %q", got)
	}

	if err := AutoRemoveState(9); err != nil {
		t.Fatalf("AutoRemoveState failed: %v", err)
	}
	if ok, _ := AutoLoadState(9, read); ok {
		t.Errorf("state not removed")
	}
	if err := AutoRemoveState(9); err != nil {
		t.Errorf("removing missing state failed: %v", err)
	}
}
