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

package main

import (
	"fmt"
	"os"

	"github.com/xelalexv/gcrdrive/pkg/run"
)

//
func synopsis() {
	fmt.Print(`
synopsis: gcrctl {serve|insert|eject|save|status|ls|dump|protect|config|mech|
                  search|convert|version} ...

run 'gcrctl {action} -h|--help' to see detailed info

`)
}

//
type executor interface {
	Execute(args []string) error
}

//
func main() {

	var action string
	var args []string

	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	var cmd executor

	switch action {

	case "serve":
		run.PrintVersion()
		cmd = run.NewServe()

	case "insert":
		cmd = run.NewInsert()

	case "eject":
		cmd = run.NewEject()

	case "save":
		cmd = run.NewSave()

	case "status":
		cmd = run.NewStatus()

	case "ls":
		cmd = run.NewList()

	case "dump":
		cmd = run.NewDump()

	case "protect":
		cmd = run.NewProtect()

	case "config":
		cmd = run.NewConfig()

	case "mech":
		cmd = run.NewMech()

	case "search":
		cmd = run.NewSearch()

	case "convert":
		cmd = run.NewConvert()

	case "version":
		cmd = run.NewVersion()

	case "", "-h", "--help":
		synopsis()
		return

	default:
		run.Die("unknown action: %s\n", action)
	}

	run.DieOnError(cmd.Execute(args))
}
