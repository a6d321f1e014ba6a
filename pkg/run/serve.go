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
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/gcrdrive/pkg/control"
	"github.com/xelalexv/gcrdrive/pkg/daemon"
	"github.com/xelalexv/gcrdrive/pkg/format/helper"
	"github.com/xelalexv/gcrdrive/pkg/repo"
)

//
const maxROMSize = 0x8000

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		`serve [-a|--address {address}] [-r|--repo {repo base folder}]
      [--index {index folder}] [--status-port {serial device}] [--rom {file}]
      [--second-drive] [--warp] [--autosave [--autosave-dir {folder}]]`,
		"daemon & API server command",
		`Use the serve command for running the drive daemon and API server. Without a
drive ROM, the drives are connected with a blank ROM, which is enough for working
with disks through the API, but not for running DOS code.`,
		logHelp+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Address, "address", "a", "GCRDRIVE_ADDRESS", "",
		"listen address and port of API server", false)
	s.AddSetting(&s.Repository, "repo", "r", "GCRDRIVE_REPO", nil,
		`disk image repo base folder; when omitted, inserting
disks from daemon host's file system is prohibited`, false)
	s.AddSetting(&s.Index, "index", "", "GCRDRIVE_INDEX", nil,
		"folder for keeping the repo search index; requires --repo", false)
	s.AddSetting(&s.StatusPort, "status-port", "", "GCRDRIVE_STATUS_PORT", nil,
		"serial device of status indicator board", false)
	s.AddSetting(&s.ROM, "rom", "", "GCRDRIVE_ROM", nil,
		"drive ROM file, 16K or 32K", false)
	s.AddSetting(&s.SecondDrive, "second-drive", "", "", false,
		"add a second drive with device number 9", false)
	s.AddSetting(&s.Warp, "warp", "", "", false,
		"run emulation as fast as possible", false)
	s.AddSetting(&s.AutoSave, "autosave", "", "GCRDRIVE_AUTOSAVE", false,
		"automatically save & restore disks across restarts", false)
	s.AddSetting(&s.AutoSaveDir, "autosave-dir", "", "GCRDRIVE_AUTOSAVE_DIR", nil,
		"folder for auto-saves, default is .gcrdrive in home folder", false)

	return s
}

//
type Serve struct {
	//
	Runner
	//
	Address     string
	Repository  string
	Index       string
	StatusPort  string
	ROM         string
	SecondDrive bool
	Warp        bool
	AutoSave    bool
	AutoSaveDir string
}

//
func (s *Serve) Run() error {

	cfg := daemon.Config{
		StatusPort:  s.StatusPort,
		SecondDrive: s.SecondDrive,
		Warp:        s.Warp,
		AutoSave:    s.AutoSave,
	}

	if s.ROM != "" {
		rom, err := readROM(s.ROM)
		if err != nil {
			return err
		}
		cfg.ROM = rom
	}

	if s.AutoSaveDir != "" {
		helper.SetBaseDir(s.AutoSaveDir)
	}

	var index *repo.Index
	if s.Index != "" {
		if s.Repository == "" {
			return fmt.Errorf("search index requires a repo")
		}
		var err error
		if index, err = repo.NewIndex(s.Index, s.Repository); err != nil {
			return fmt.Errorf("cannot open search index: %v", err)
		}
	}

	d, err := daemon.NewDaemon(cfg)
	if err != nil {
		return err
	}

	wg := &sync.WaitGroup{}
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := d.Serve(); err != nil {
			log.Errorf("daemon closed with error: %v", err)
		} else {
			log.Info("daemon stopped")
		}
	}()

	if !strings.Contains(s.Address, ":") {
		s.Address = fmt.Sprintf("%s:%d", s.Address, s.Port)
	}

	api := control.NewAPIServer(s.Address, s.Repository, index, d)
	go func() {
		defer wg.Done()
		if err := api.Serve(); err != nil {
			log.Errorf("API server closed with error: %v", err)
		} else {
			log.Info("API server stopped")
		}
	}()

	if index != nil {
		go func() {
			if err := index.Start(); err != nil {
				log.Errorf("search index closed with error: %v", err)
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sigCount := 0
	done := make(chan bool)

	for {

		select {

		case sig := <-sigs:
			log.WithField("signal", sig).Info("signal received")
			sigCount++

			switch sigCount {

			case 1:
				go func() {
					log.Info("shutting down, hit Ctrl-C twice to force exit...")
					api.Stop()
					d.Stop()
					if index != nil {
						index.Stop()
					}
					wg.Wait()
					log.Info("GCRDrive stopped")
					done <- true
				}()

			case 2:
				log.Warn("shutdown in progress, hit Ctrl-C again to force exit")

			default:
				log.Warn("forcing daemon to stop immediately")
				os.Exit(1)
			}

		case <-done:
			return nil
		}
	}
}

//
func readROM(file string) ([]byte, error) {
	rom, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	if l := len(rom); l != maxROMSize/2 && l != maxROMSize {
		return nil, fmt.Errorf("invalid ROM size %d, need 16K or 32K", l)
	}
	return rom, nil
}
