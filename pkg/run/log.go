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
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

/*
	The package initializer sets up logging based on logrus. The following
	environment variables configure logging:

		LOG_FORMAT		`json` for JSON logging, `text` for plain text
		LOG_FORCE_COLORS	non-empty for always using colors in text logs
		LOG_METHODS		non-empty for including caller methods in log
		LOG_LEVEL		`panic`, `fatal`, `error`, `warn`, `info`, `debug`, `trace`
*/
func init() {
	log.SetOutput(os.Stdout)
	configureLogging(os.Getenv)
}

//
func configureLogging(env func(string) string) {

	switch strings.ToLower(env("LOG_FORMAT")) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text":
		log.SetFormatter(&log.TextFormatter{DisableColors: true})
	default:
		if env("LOG_FORCE_COLORS") != "" {
			log.SetFormatter(&log.TextFormatter{ForceColors: true})
		}
	}

	log.SetReportCaller(env("LOG_METHODS") != "")

	if level := env("LOG_LEVEL"); level != "" {
		if l, err := log.ParseLevel(level); err != nil {
			log.Errorf("invalid log level: '%s'; valid levels are: panic, "+
				"fatal, error, warn, info, debug, trace", level)
		} else {
			log.SetLevel(l)
		}
	}
}

// logHelp is the help epilogue of commands that log
const logHelp = `- Logging can be configured with these environment variables:

  LOG_FORMAT		set to 'json' for JSON logging, 'text' for plain text
  LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
  LOG_METHODS		set to non-empty for including methods in log
  LOG_LEVEL		panic, fatal, error, warn, info, debug, trace

`
