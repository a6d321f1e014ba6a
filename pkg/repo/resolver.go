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

package repo

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

//
const (
	PrefixRepoRef  = "repo://"
	PrefixHTTPRef  = "http://"
	PrefixHTTPSRef = "https://"
)

//
var (
	ErrRepoDisabled     = errors.New("disk image repository is not enabled")
	ErrInvalidReference = errors.New("invalid reference")
	ErrFetch            = errors.New("cannot fetch remote image")
)

// Resolve opens the disk image that ref points to. References are either
// repo://{path}, which is looked up inside the repository folder repo, or
// HTTP URLs.
func Resolve(ref, repo string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{
		"reference":  ref,
		"repository": repo,
	}).Debug("resolving ref")

	switch {

	case strings.HasPrefix(ref, PrefixRepoRef):
		if repo == "" {
			return nil, ErrRepoDisabled
		}
		p, err := repoPath(ref[len(PrefixRepoRef):], repo)
		if err != nil {
			return nil, err
		}
		return newFileSource(p)

	case strings.HasPrefix(ref, PrefixHTTPRef), strings.HasPrefix(ref, PrefixHTTPSRef):
		return newHTTPSource(ref)
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidReference, ref)
}

// repoPath maps a repo relative path to a file path inside repo; paths
// leaving the repository are rejected
func repoPath(rel, repo string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidReference)
	}
	return filepath.Join(repo, filepath.FromSlash(clean[1:])), nil
}

//
func IsReference(r string) bool {
	return strings.HasPrefix(r, PrefixRepoRef) ||
		strings.HasPrefix(r, PrefixHTTPRef) ||
		strings.HasPrefix(r, PrefixHTTPSRef)
}

// Name returns the file name part of a reference.
func Name(ref string) string {
	if ix := strings.LastIndex(ref, "/"); ix > -1 {
		ref = ref[ix+1:]
	}
	if ix := strings.IndexAny(ref, "?#"); ix > -1 {
		ref = ref[:ix]
	}
	return ref
}
