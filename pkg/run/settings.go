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
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

//
type setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
}

/*
	AddSetting adds a setting to this command. Target is a pointer to the
	variable receiving the setting, one of *string, *int, *bool,
	*time.Duration, or *[]string. Flag is the long command line flag, short
	its single letter version, and env the name of an environment variable
	that may carry the setting. A flag given on the command line takes
	precedence over the variable. def is the default value, or nil for the
	zero value. Required settings must not have a default.
*/
func (c *Command) AddSetting(target interface{}, flag, short, env string,
	def interface{}, help string, required bool) {

	if required && def != nil {
		Die("required setting '%s' does not take a default value", flag)
	}

	helpMsg := help
	if env != "" {
		helpMsg = fmt.Sprintf("%s (%s)", help, env)
	}

	flags := c.flags()
	bad := func() {
		Die("default value for setting '%s' has incorrect type %T", flag, def)
	}

	switch t := target.(type) {

	case *string:
		var d string
		if def != nil {
			var ok bool
			if d, ok = def.(string); !ok {
				bad()
			}
		}
		flags.StringVarP(t, flag, short, d, helpMsg)

	case *int:
		var d int
		if def != nil {
			var ok bool
			if d, ok = def.(int); !ok {
				bad()
			}
		}
		flags.IntVarP(t, flag, short, d, helpMsg)

	case *bool:
		var d bool
		if def != nil {
			var ok bool
			if d, ok = def.(bool); !ok {
				bad()
			}
		}
		flags.BoolVarP(t, flag, short, d, helpMsg)

	case *time.Duration:
		var d time.Duration
		if def != nil {
			var ok bool
			if d, ok = def.(time.Duration); !ok {
				bad()
			}
		}
		flags.DurationVarP(t, flag, short, d, helpMsg)

	case *[]string:
		var d []string
		if def != nil {
			var ok bool
			if d, ok = def.([]string); !ok {
				bad()
			}
		}
		flags.StringSliceVarP(t, flag, short, d, helpMsg)

	default:
		Die("setting '%s' is of unsupported type %T", flag, target)
	}

	log.Tracef("add setting: flag=%s, env=%s, type=%T", flag, env, target)

	c.viper.BindPFlag(flag, flags.Lookup(flag))
	if env != "" {
		c.viper.BindEnv(flag, env)
	}

	c.settings[flag] = &setting{
		flag: flag, env: env, required: required, target: target}
}

//
func (c *Command) flags() *pflag.FlagSet {
	return c.cmd.Flags()
}

/*
	ParseSettings places the values of all settings in their target variables.
	It is called before a command's exec function runs.
*/
func (c *Command) ParseSettings() error {
	for _, s := range c.settings {
		if err := s.resolve(c); err != nil {
			return err
		}
	}
	return nil
}

//
func (s *setting) resolve(c *Command) error {

	v := c.viper
	missing := false
	var val interface{}

	switch t := s.target.(type) {
	case *string:
		*t = v.GetString(s.flag)
		missing, val = *t == "", *t
	case *int:
		*t = v.GetInt(s.flag)
		missing, val = *t == 0, *t
	case *bool:
		*t = v.GetBool(s.flag)
		missing, val = !*t, *t
	case *time.Duration:
		*t = v.GetDuration(s.flag)
		missing, val = *t == 0, *t
	case *[]string:
		*t = splitList(v.GetStringSlice(s.flag))
		missing, val = len(*t) == 0, *t
	}

	log.WithFields(log.Fields{
		"flag":    s.flag,
		"value":   val,
		"default": !v.IsSet(s.flag),
	}).Trace("setting")

	if s.required && missing {
		msg := fmt.Sprintf("you need to specify the --%s command line flag", s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}

// splitList splits comma separated entries, as they come from environment
// variables
func splitList(l []string) []string {
	ret := make([]string, 0, len(l))
	for _, e := range l {
		for _, p := range strings.Split(e, ",") {
			if p = strings.TrimSpace(p); p != "" {
				ret = append(ret, p)
			}
		}
	}
	return ret
}
