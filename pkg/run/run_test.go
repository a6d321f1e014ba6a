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
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

//
type testCommand struct {
	Command
	Name  string
	Count int
	On    bool
	Wait  time.Duration
	List  []string
}

func newTestCommand() *testCommand {
	c := &testCommand{}
	c.Command = *NewCommand("test", "test", "test command", "", func() error {
		return nil
	})
	c.AddSetting(&c.Name, "name", "n", "GCRDRIVE_TEST_NAME", nil, "name", true)
	c.AddSetting(&c.Count, "count", "c", "GCRDRIVE_TEST_COUNT", 3, "count", false)
	c.AddSetting(&c.On, "on", "", "", false, "switch", false)
	c.AddSetting(&c.Wait, "wait", "w", "", time.Second, "wait", false)
	c.AddSetting(&c.List, "list", "l", "GCRDRIVE_TEST_LIST", nil, "list", false)
	return c
}

func TestSettings(t *testing.T) {

	t.Setenv("GCRDRIVE_TEST_NAME", "from-env")
	t.Setenv("GCRDRIVE_TEST_COUNT", "7")
	t.Setenv("GCRDRIVE_TEST_LIST", "a, b,,c")

	c := newTestCommand()
	if err := c.Execute([]string{"--on", "-w", "5s", "rest"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if c.Name != "from-env" || c.Count != 7 || !c.On || c.Wait != 5*time.Second {
		t.Errorf("unexpected settings: %+v", c)
	}
	if strings.Join(c.List, "|") != "a|b|c" {
		t.Errorf("unexpected list: %v", c.List)
	}
	if args := c.Args(); len(args) != 1 || args[0] != "rest" {
		t.Errorf("unexpected args: %v", args)
	}

	c = newTestCommand()
	if err := c.Execute([]string{"--name", "from-flag", "-c", "2"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if c.Name != "from-flag" || c.Count != 2 || c.Wait != time.Second {
		t.Errorf("flags do not take precedence: %+v", c)
	}
}

func TestRequiredSetting(t *testing.T) {
	c := newTestCommand()
	err := c.Execute(nil)
	if err == nil || !strings.Contains(err.Error(), "--name") ||
		!strings.Contains(err.Error(), "GCRDRIVE_TEST_NAME") {
		t.Errorf("missing required setting not reported: %v", err)
	}
}

func TestBadDefault(t *testing.T) {
	UnderTest = true
	defer func() {
		UnderTest = false
		if recover() == nil {
			t.Errorf("bad default accepted")
		}
	}()
	c := NewCommand("bad", "", "", "", func() error { return nil })
	var i int
	c.AddSetting(&i, "bad", "", "", "text", "", false)
}

func TestValidateDrive(t *testing.T) {
	for _, d := range []int{8, 9} {
		if err := validateDrive(d); err != nil {
			t.Errorf("drive %d rejected: %v", d, err)
		}
	}
	for _, d := range []int{0, 7, 10} {
		if err := validateDrive(d); err == nil {
			t.Errorf("drive %d accepted", d)
		}
	}
}

func TestQuery(t *testing.T) {
	if q := query("a", "", "b", ""); q != "" {
		t.Errorf("unexpected query for empty values: %s", q)
	}
	if q := query("track", "18", "x", "", "name", "a b"); q != "?name=a+b&track=18" {
		t.Errorf("unexpected query: %s", q)
	}
}

func TestGetExtension(t *testing.T) {
	if e := getExtension("/some/Game.D64"); e != "d64" {
		t.Errorf("unexpected extension: %s", e)
	}
	if e := getExtension("noext"); e != "" {
		t.Errorf("unexpected extension: %s", e)
	}
}

// fakeDaemon answers eject requests with a conflict unless forced.
func fakeDaemon(t *testing.T) (*httptest.Server, []string) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			switch {
			case req.URL.Path == "/drive/8/eject" &&
				req.URL.Query().Get("force") != "true":
				http.Error(w, "disk modified", http.StatusConflict)
			case req.URL.Path == "/drive/8/eject":
				w.Write([]byte("disk ejected\n"))
			case req.URL.Path == "/status":
				w.Write([]byte("drive 8: empty\n"))
			default:
				http.NotFound(w, req)
			}
		}))
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("cannot parse server URL: %v", err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("cannot split server address: %v", err)
	}
	return srv, []string{"--host", host, "--port", port}
}

func TestAPICall(t *testing.T) {

	srv, base := fakeDaemon(t)
	defer srv.Close()

	var out bytes.Buffer
	stdout = &out
	defer func() { stdout = os.Stdout }()

	if err := NewStatus().Execute(base); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if out.String() != "drive 8: empty\n" {
		t.Errorf("unexpected status output: %s", out.String())
	}

	e := NewEject()
	err := e.Execute(append(base, "--force=false", "-d", "9"))
	if err == nil || isConflict(err) {
		t.Errorf("expected not found error, got %v", err)
	}

	e = NewEject()
	if err := e.cmd.ParseFlags(base); err != nil {
		t.Fatalf("cannot parse flags: %v", err)
	}
	if err := e.ParseSettings(); err != nil {
		t.Fatalf("cannot parse settings: %v", err)
	}
	if err := e.eject(false); !isConflict(err) ||
		err.Error() != "disk modified" {
		t.Errorf("expected conflict, got %v", err)
	}

	out.Reset()
	if err := e.eject(true); err != nil || out.String() != "disk ejected\n" {
		t.Errorf("forced eject failed: %v, '%s'", err, out.String())
	}
}

func TestConfigureLogging(t *testing.T) {

	defer func(l log.Level, f log.Formatter) {
		log.SetLevel(l)
		log.SetFormatter(f)
		log.SetReportCaller(false)
	}(log.GetLevel(), log.StandardLogger().Formatter)

	env := map[string]string{"LOG_FORMAT": "JSON", "LOG_LEVEL": "debug"}
	configureLogging(func(k string) string { return env[k] })

	if _, ok := log.StandardLogger().Formatter.(*log.JSONFormatter); !ok {
		t.Errorf("JSON formatter not set")
	}
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("unexpected log level %v", log.GetLevel())
	}

	env = map[string]string{"LOG_LEVEL": "bogus"}
	configureLogging(func(k string) string { return env[k] })
	if log.GetLevel() != log.DebugLevel {
		t.Errorf("invalid level changed log level to %v", log.GetLevel())
	}
}
