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
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/format"
	"github.com/xelalexv/gcrdrive/pkg/util"
)

//
const replaceChars = "`~!@#$%^&*_-+=()[]{}|;:',.<>?"

const defaultFlushDelay = 5 * time.Second
const maxBatchSize = 100

var nameCleaner *strings.Replacer

var errStopped = errors.New("index stopped")

//
func init() {
	rep := make([]string, 2*len(replaceChars))
	for ix, c := range replaceChars {
		rep[ix*2] = string(c)
		rep[ix*2+1] = " "
	}
	nameCleaner = strings.NewReplacer(rep...)
}

// NewIndex opens the search index stored at base, or creates it if missing.
// The index covers all disk images in the folder tree rooted at repo.
func NewIndex(base, repo string) (*Index, error) {

	var err error
	i := &Index{flushDelay: defaultFlushDelay}

	if i.base, err = filepath.Abs(base); err != nil {
		return nil, err
	}
	if i.repo, err = filepath.Abs(repo); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"base": i.base, "repo": i.repo})

	if _, err := os.Stat(i.base); err != nil {
		if os.IsNotExist(err) {
			logger.Info("creating new index")
			i.index, err = bleve.New(i.base, bleve.NewIndexMapping())
		}
		if err != nil {
			logger.Errorf("cannot create index: %v", err)
			return nil, err
		}
		logger.Info("new index created")
		i.empty = true

	} else {
		logger.Info("opening index")
		if i.index, err = bleve.Open(i.base); err != nil {
			logger.Errorf("cannot open index: %v", err)
			return nil, err
		}
		logger.Info("index opened")
	}

	i.batch = i.index.NewBatch()
	return i, nil
}

// Entry is what gets indexed for a disk image.
type Entry struct {
	Name       string
	Type       string
	Compressor string
}

//
type Index struct {
	base       string
	repo       string
	flushDelay time.Duration
	stopped    bool
	//
	index   bleve.Index
	empty   bool
	watcher *util.DirWatcher
	//
	lock       sync.Mutex
	batch      *bleve.Batch
	batchCount int
}

// Start brings the index up to date with the repository, and starts
// watching the repository for changes.
func (i *Index) Start() error {

	start := time.Now()
	log.Info("pruning index")
	if err := i.prune(); err != nil {
		return fmt.Errorf("error pruning index: %v", err)
	}
	log.WithField("duration", time.Since(start)).Info("index pruning finished")

	start = time.Now()
	log.Info("updating index")
	if err := i.update(); err != nil {
		return fmt.Errorf("error updating index: %v", err)
	}
	log.WithField("duration", time.Since(start)).Info("index update finished")

	if err := i.batched(true); err != nil {
		return err
	}

	if err := i.startWatching(); err != nil {
		return fmt.Errorf("error starting repo watcher: %v", err)
	}

	log.Info("index ready")
	return nil
}

//
func (i *Index) Stop() {

	i.lock.Lock()
	i.stopped = true
	i.lock.Unlock()

	if i.watcher != nil {
		i.watcher.Stop()
	}
	if i.index != nil {
		i.index.Close()
	}
}

//
func (i *Index) prune() error {

	if i.empty {
		return nil
	}

	ix, err := i.index.Advanced()
	if err != nil {
		return err
	}

	rd, err := ix.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	docs, err := rd.DocIDReaderAll()
	if err != nil {
		return err
	}
	defer docs.Close()

	var gone []string

	for {
		d, err := docs.Next()
		if err != nil {
			return err
		}
		if d == nil {
			break
		}
		id, err := rd.ExternalID(d)
		if err != nil {
			return err
		}
		if _, err := os.Stat(filepath.Join(i.repo, id)); os.IsNotExist(err) {
			gone = append(gone, id)
		}
	}

	for _, id := range gone {
		if err := i.removeEntry(id); err != nil {
			return err
		}
	}

	return nil
}

//
func (i *Index) update() error {

	var lastMod time.Time
	if !i.empty {
		if store, err := os.Stat(filepath.Join(i.base, "store")); err == nil {
			lastMod = store.ModTime()
			log.Debugf("last index mod time: %v", lastMod)
		}
	}

	i.empty = false

	return filepath.Walk(i.repo,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				log.Warnf("skipping %s: %v", path, err)
				return nil
			}
			if i.isStopped() {
				return errStopped
			}
			if !info.IsDir() && info.ModTime().After(lastMod) {
				return i.addEntry(i.makeRelative(path))
			}
			return nil
		})
}

//
func (i *Index) isStopped() bool {
	i.lock.Lock()
	defer i.lock.Unlock()
	return i.stopped
}

//
func (i *Index) startWatching() error {
	log.Info("starting index repo watcher")
	var err error
	if i.watcher, err = util.NewDirWatcher(i.repo); err != nil {
		return err
	}
	return i.watcher.Start(i.flushDelay, i.watchEvent, i.flushEvent)
}

//
func (i *Index) watchEvent(evt fsnotify.Event) error {

	rel := i.makeRelative(evt.Name)
	log.WithFields(log.Fields{"path": rel, "op": evt.Op}).Debug("index update")

	switch {

	case evt.Op&fsnotify.Create != 0, evt.Op&fsnotify.Write != 0:
		if info, err := os.Stat(evt.Name); err != nil {
			log.Errorf("cannot add new entry: %v", err)
		} else if !info.IsDir() {
			return i.addEntry(rel)
		}

	case evt.Op&(fsnotify.Rename|fsnotify.Remove) != 0:
		return i.removeEntry(rel)

	default:
		log.Debug("no index update required")
	}

	return nil
}

//
func (i *Index) flushEvent() error {
	return i.batched(true)
}

// addEntry indexes the file at path when it is a disk image. Other files
// are ignored.
func (i *Index) addEntry(path string) error {

	logger := log.WithField("file", path)

	name, typ, compressor := format.SplitNameTypeCompressor(filepath.Base(path))
	if typ == "" && compressor == "" {
		logger.Trace("not a disk image, skipping")
		return nil
	}

	logger.Debug("adding new entry to index")

	dir := filepath.Dir(path)
	if dir == "." {
		dir = ""
	}

	entry := Entry{
		Name:       nameCleaner.Replace(filepath.Join(dir, name)),
		Type:       typ,
		Compressor: compressor,
	}

	i.lock.Lock()
	err := i.batch.Index(path, entry)
	i.lock.Unlock()

	if err != nil {
		logger.Errorf("failed to batch entry add: %v", err)
		return err
	}

	return i.batched(false)
}

//
func (i *Index) removeEntry(path string) error {
	log.WithField("file", path).Debug("removing deleted entry from index")
	i.lock.Lock()
	i.batch.Delete(path)
	i.lock.Unlock()
	return i.batched(false)
}

//
func (i *Index) batched(flush bool) error {

	i.lock.Lock()
	defer i.lock.Unlock()

	if i.batchCount++; flush || i.batchCount > maxBatchSize {
		log.Debug("flushing pending index actions")
		if err := i.index.Batch(i.batch); err != nil {
			log.Errorf("failed to execute index batch: %v", err)
			return err
		}
		i.batch = i.index.NewBatch()
		i.batchCount = 0
	}

	return nil
}

//
func (i *Index) makeRelative(path string) string {
	if len(path) > len(i.repo) && strings.HasPrefix(path, i.repo) {
		return filepath.ToSlash(path[len(i.repo)+1:])
	}
	return path
}
