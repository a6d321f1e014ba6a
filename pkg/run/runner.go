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
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/xelalexv/gcrdrive/pkg/control"
	"github.com/xelalexv/gcrdrive/pkg/daemon"
)

//
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable.
`

//
const maxDevice = daemon.FirstDevice + 1

// replies of the daemon go here
var stdout io.Writer = os.Stdout

/*
	NewRunner creates a base runner for commands that talk to the daemon. The
	parameters are passed to the wrapped command.
*/
func NewRunner(use, short, long, helpEpilogue string, exec func() error) *Runner {
	return &Runner{Command: *NewCommand(use, short, long, helpEpilogue, exec)}
}

//
type Runner struct {
	//
	Command
	//
	Port int
	Host string
}

// AddBaseSettings adds the settings for reaching the daemon. It has to be
// called from the top level command type, after the runner was embedded.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Port, "port", "p", "GCRDRIVE_PORT", control.DefaultPort,
		"port of daemon's API server", false)
	r.AddSetting(&r.Host, "host", "", "GCRDRIVE_HOST", "127.0.0.1",
		"host running the daemon", false)
}

// apiError is returned for replies with a status code of 400 and above.
type apiError struct {
	code int
	msg  string
}

//
func (e *apiError) Error() string {
	return strings.TrimSpace(e.msg)
}

//
func isConflict(err error) bool {
	ae, ok := err.(*apiError)
	return ok && ae.code == http.StatusConflict
}

//
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	req, err := http.NewRequest(
		method, fmt.Sprintf("http://%s:%d%s", r.Host, r.Port, path), body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Add("Content-Type", "application/json")
		req.Header.Add("Accept", "application/json")
	} else {
		req.Header.Add("Content-Type", "text/plain")
		req.Header.Add("Accept", "text/plain")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &apiError{code: resp.StatusCode, msg: string(msg)}
	}

	return resp.Body, nil
}

// printCall issues an API call and prints the reply
func (r *Runner) printCall(method, path string, body io.Reader) error {
	resp, err := r.apiCall(method, path, false, body)
	if err != nil {
		return err
	}
	defer resp.Close()
	_, err = io.Copy(stdout, resp)
	return err
}

//
func validateDrive(d int) error {
	if d < daemon.FirstDevice || d > maxDevice {
		return fmt.Errorf(
			"invalid drive number: %d; valid numbers are %d and %d",
			d, daemon.FirstDevice, maxDevice)
	}
	return nil
}

// getExtension returns the file extension of file, in lower case and without
// leading dot
func getExtension(file string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
}

// query builds a URL query from key/value pairs, skipping empty values
func query(kv ...string) string {
	q := url.Values{}
	for ix := 0; ix+1 < len(kv); ix += 2 {
		if kv[ix+1] != "" {
			q.Set(kv[ix], kv[ix+1])
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
