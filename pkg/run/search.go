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

package run

import (
	"fmt"
	"strconv"
)

//
func NewSearch() *Search {

	s := &Search{}
	s.Runner = *NewRunner(
		"search -t|--term {search term} [-i|--items {max items}] [-p|--port {port}]",
		"search disk image repository",
		`
Use the search command to search the daemon's disk image repository. This requires
the daemon to run with a search index.`,
		`- The returned references can be used with the insert command's --ref flag.

`+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Term, "term", "t", "", nil, "search term", true)
	s.AddSetting(&s.Items, "items", "i", "", 100,
		"maximum number of items to return", false)

	return s
}

//
type Search struct {
	//
	Runner
	//
	Term  string
	Items int
}

//
func (s *Search) Run() error {
	if s.Items < 1 {
		return fmt.Errorf("invalid number of items: %d", s.Items)
	}
	return s.printCall("GET", fmt.Sprintf("/search%s",
		query("term", s.Term, "items", strconv.Itoa(s.Items))), nil)
}
