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

package util

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

//
var (
	ErrWatcherStopped = errors.New("directory watcher not initialized or stopped")
	ErrWatcherRunning = errors.New("directory watcher already started")
)

/*
	NewDirWatcher creates a recursive watcher for the directory tree rooted in
	dir. Directories created later on are added to the watch. Nothing is
	reported before Start is called.
*/
func NewDirWatcher(dir string) (*DirWatcher, error) {

	ret := &DirWatcher{release: make(chan bool)}

	var err error
	if ret.watcher, err = fsnotify.NewWatcher(); err != nil {
		return nil, err
	}

	if err := filepath.Walk(dir, ret.addDirWalking); err != nil {
		log.Errorf("error walking directory '%s': %v", dir, err)
		ret.watcher.Close()
		return nil, err
	}

	return ret, nil
}

//
type DirWatcher struct {
	watcher *fsnotify.Watcher
	release chan bool
	running bool
}

/*
	Start calls handler for every change in the watched tree. After the last
	of a burst of changes, flush is called once the tree stayed quiet for
	quiet time. Handler and flush are called from the same go routine.
*/
func (dw *DirWatcher) Start(quiet time.Duration,
	handler func(fsnotify.Event) error, flush func() error) error {

	if dw.watcher == nil {
		return ErrWatcherStopped
	}
	if dw.running {
		return ErrWatcherRunning
	}

	dw.running = true

	go func() {

		timer := time.NewTimer(quiet)
		timer.Stop()

		for {
			select {

			case evt, ok := <-dw.watcher.Events:
				if !ok {
					log.Debug("directory watcher routine exiting")
					dw.running = false
					dw.release <- true
					return
				}
				timer.Stop()
				dw.handleEvent(evt)
				if err := handler(evt); err != nil {
					log.Errorf("error in watch event handler: %v", err)
				}
				timer.Reset(quiet)

			case err, ok := <-dw.watcher.Errors:
				if ok {
					log.Errorf("directory watcher error: %v", err)
				}

			case <-timer.C:
				if err := flush(); err != nil {
					log.Errorf("error flushing: %v", err)
				}
			}
		}
	}()

	return nil
}

// Stop stops the watcher and waits for its go routine to finish. A stopped
// watcher cannot be restarted.
func (dw *DirWatcher) Stop() {
	if dw.watcher == nil {
		return
	}
	log.Info("closing directory watcher")
	running := dw.running
	if err := dw.watcher.Close(); err != nil {
		log.Errorf("could not close file watcher: %v", err)
	}
	if running {
		<-dw.release
	}
	dw.watcher = nil
}

//
func (dw *DirWatcher) handleEvent(evt fsnotify.Event) {
	log.WithFields(
		log.Fields{"path": evt.Name, "op": evt.Op}).Trace("handling event")
	if evt.Op&fsnotify.Create != 0 {
		if info, err := os.Lstat(evt.Name); err == nil && info.IsDir() {
			if err := filepath.Walk(evt.Name, dw.addDirWalking); err != nil {
				log.Errorf("error adding new directory '%s': %v", evt.Name, err)
			}
		}
	}
}

//
func (dw *DirWatcher) addDirWalking(
	path string, info os.FileInfo, err error) error {

	if err != nil {
		return err
	}

	if info.Mode().IsDir() {
		if err := dw.watcher.Add(path); err != nil {
			log.Errorf("error adding watch for directory '%s': %v", path, err)
			return err
		}
		log.WithField("path", path).Debug("starting directory watch")
	}

	return nil
}
