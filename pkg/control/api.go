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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/daemon"
	"github.com/xelalexv/gcrdrive/pkg/drive"
	"github.com/xelalexv/gcrdrive/pkg/repo"
)

//
const DefaultPort = 8541

// maximum accepted size of uploaded disk images
const maxImageSize = 1048576

//
var errModified = errors.New("disk is modified")

//
type APIServer interface {
	Serve() error
	Stop() error
}

//
func NewAPIServer(addr, repository string, index *repo.Index,
	d *daemon.Daemon) APIServer {
	return &api{address: addr, repository: repository, index: index, daemon: d}
}

//
type api struct {
	address    string
	repository string
	index      *repo.Index
	daemon     *daemon.Daemon
	server     *http.Server
}

//
func (a *api) Serve() error {

	addr := a.address
	if len(strings.Split(addr, ":")) < 2 {
		addr = fmt.Sprintf("%s:%d", a.address, DefaultPort)
	}

	log.Infof("GCRDrive API starts listening on %s", addr)
	a.server = &http.Server{Addr: addr, Handler: a.router()}

	err := a.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

//
func (a *api) Stop() error {
	if a.server != nil {
		log.Info("API server stopping...")
		err := a.server.Shutdown(context.Background())
		a.server = nil
		return err
	}
	return nil
}

//
func (a *api) router() http.Handler {

	router := mux.NewRouter().StrictSlash(true)

	addRoute(router, "status", "GET", "/status", a.status)
	addRoute(router, "watch", "GET", "/watch", a.watch)
	addRoute(router, "version", "GET", "/version", a.version)
	addRoute(router, "search", "GET", "/search", a.search)
	addRoute(router, "insert", "PUT", "/drive/{drive:[0-9]+}", a.insert)
	addRoute(router, "new", "PUT", "/drive/{drive:[0-9]+}/new", a.newDisk)
	addRoute(router, "eject", "GET", "/drive/{drive:[0-9]+}/eject", a.eject)
	addRoute(router, "save", "GET", "/drive/{drive:[0-9]+}", a.save)
	addRoute(router, "ls", "GET", "/drive/{drive:[0-9]+}/list", a.list)
	addRoute(router, "dump", "GET", "/drive/{drive:[0-9]+}/dump", a.dump)
	addRoute(router, "protect", "PUT", "/drive/{drive:[0-9]+}/protect", a.protect)
	addRoute(router, "config", "PUT", "/drive/{drive:[0-9]+}/config", a.config)
	addRoute(router, "mech", "PUT", "/drive/{drive:[0-9]+}/mech", a.mech)

	return router
}

//
func addRoute(r *mux.Router, name, method, pattern string,
	handler http.HandlerFunc) {
	r.Methods(method).
		Path(pattern).
		Name(name).
		Handler(requestLogger(handler, name))
}

//
func requestLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		log.WithFields(log.Fields{
			"remote": r.RemoteAddr,
			"method": r.Method,
			"path":   r.RequestURI,
		}).Debugf("API BEGIN | %s", name)

		start := time.Now()
		inner.ServeHTTP(w, r)

		log.WithFields(log.Fields{
			"remote":   r.RemoteAddr,
			"method":   r.Method,
			"path":     r.RequestURI,
			"duration": time.Since(start),
		}).Debugf("API END   | %s", name)
	})
}

// getDrive returns the drive addressed by the request, or nil after sending
// an error reply
func (a *api) getDrive(w http.ResponseWriter, req *http.Request) *drive.Drive {
	dev, err := strconv.Atoi(mux.Vars(req)["drive"])
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return nil
	}
	drv, err := a.daemon.GetDrive(dev)
	if handleDriveError(err, w) {
		return nil
	}
	return drv
}

// checkModified sends a conflict reply if the disk in drv is modified and
// the request is not forced
func checkModified(drv *drive.Drive, w http.ResponseWriter,
	req *http.Request) bool {
	if !isFlagSet(req, "force") && drv.Info().Modified {
		handleError(fmt.Errorf("%w, disk in drive %d not changed",
			errModified, drv.Device()), http.StatusConflict, w)
		return true
	}
	return false
}

//
func isFlagSet(req *http.Request, flag string) bool {
	return getArg(req, flag) == "true"
}

//
func getArg(req *http.Request, arg string) string {
	return req.URL.Query().Get(arg)
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	val := getArg(req, arg)
	if val == "" {
		return def, nil
	}
	return strconv.Atoi(val)
}

//
func getSwitchArg(req *http.Request, arg string) (on, set bool, err error) {
	switch val := strings.ToLower(getArg(req, arg)); val {
	case "":
		return false, false, nil
	case "on", "true", "yes", "1":
		return true, true, nil
	case "off", "false", "no", "0":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("invalid value for %s: %s", arg, val)
	}
}

//
func setHeaders(h http.Header, json bool) {
	if json {
		h.Set("Content-Type", "application/json; charset=UTF-8")
	} else {
		h.Set("Content-Type", "text/plain; charset=UTF-8")
	}
}

// handleDriveError sends an error reply with a status code matching err
func handleDriveError(err error, w http.ResponseWriter) bool {

	if err == nil {
		return false
	}

	code := http.StatusInternalServerError

	switch {
	case errors.Is(err, drive.ErrInvalidDevice):
		code = http.StatusNotFound
	case errors.Is(err, drive.ErrImageUnavailable):
		code = http.StatusNotAcceptable
	case errors.Is(err, drive.ErrInsertPending), errors.Is(err, drive.ErrDiskChanging):
		code = http.StatusLocked
	case errors.Is(err, drive.ErrNoDisk),
		errors.Is(err, drive.ErrInvalidImage),
		errors.Is(err, drive.ErrInvalidConfigItem),
		errors.Is(err, drive.ErrUnsupportedDriveType),
		errors.Is(err, drive.ErrROMMissing):
		code = http.StatusUnprocessableEntity
	}

	return handleError(err, code, w)
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	log.Errorf("%v", e)

	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(fmt.Sprintf("%v\n", e))); err != nil {
		log.Errorf("problem writing error: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := fmt.Fprintf(w, "%s\n", body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), false)
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {
	setHeaders(w.Header(), true)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(obj); err != nil {
		log.Errorf("problem writing error: %v", err)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return strings.HasPrefix(req.Header.Get("Content-Type"), "application/json")
}
