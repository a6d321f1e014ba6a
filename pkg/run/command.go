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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//
const epilogueHeader = `
Notes:

`

//
var (
	UnderTest bool
)

// DieOnError exits the running process if e is not nil, after printing it.
func DieOnError(e error) {
	if e != nil {
		Die("%v\n", e)
	}
}

// Die prints msg and exits the running process. Under test, it panics
// instead.
func Die(msg string, params ...interface{}) {
	out := msg
	if len(params) > 0 {
		out = fmt.Sprintf(msg, params...)
	}
	if UnderTest {
		panic(out)
	}
	fmt.Print(out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Println()
	}
	os.Exit(1)
}

//
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var res string
	fmt.Scanln(&res)
	return strings.ToLower(strings.TrimSpace(res)) == "y"
}

/*
	NewCommand creates a command wrapping a new Cobra command. The exec
	function is invoked when the command's Execute method is called.
*/
func NewCommand(use, short, long, helpEpilogue string,
	exec func() error) *Command {

	ret := &Command{
		cmd: &cobra.Command{
			Use:                   use,
			Short:                 short,
			Long:                  long,
			SilenceErrors:         true,
			SilenceUsage:          true,
			DisableFlagsInUseLine: true,
		},
		settings:     map[string]*setting{},
		viper:        viper.New(),
		helpEpilogue: helpEpilogue,
	}

	ret.cmd.RunE = func(*cobra.Command, []string) error {
		if err := ret.ParseSettings(); err != nil {
			return err
		}
		return exec()
	}

	ret.helpFunc = ret.cmd.HelpFunc()
	ret.cmd.SetHelpFunc(ret.help)
	return ret
}

/*
	Command wraps Cobra and Viper. Settings are added with AddSetting, and can
	come from a command line flag or an environment variable. Required
	settings missing from both are reported with the flag and the variable
	to use.
*/
type Command struct {
	//
	cmd *cobra.Command
	//
	settings map[string]*setting
	viper    *viper.Viper
	//
	helpEpilogue string
	helpFunc     func(*cobra.Command, []string)
}

//
func (c *Command) help(cmd *cobra.Command, args []string) {
	if c.helpFunc != nil {
		c.helpFunc(cmd, args)
	}
	if c.helpEpilogue != "" {
		fmt.Fprintln(cmd.OutOrStdout(), epilogueHeader+c.helpEpilogue)
	} else {
		fmt.Fprintln(cmd.OutOrStdout())
	}
}

// Args returns the command line arguments left after parsing flags.
func (c *Command) Args() []string {
	return c.flags().Args()
}

// Execute runs the command with args, which must not include the action.
func (c *Command) Execute(args []string) error {
	c.cmd.SetArgs(append([]string{}, args...))
	return c.cmd.Execute()
}
