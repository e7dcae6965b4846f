package daemon

import (
	"fmt"
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/werdxz/portty/internal/config"
	"github.com/werdxz/portty/internal/ctlproto"
	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/paths"
	"github.com/werdxz/portty/internal/sessionengine"
)

// newSocketCoordinator binds a coordinator's control socket under a
// short per-test base dir (unix socket paths have a low length limit).
func newSocketCoordinator(t *testing.T) (*Coordinator, net.Listener) {
	t.Helper()
	layout := paths.ForBase(filepath.Join(t.TempDir(), "p"))
	if err := layout.EnsureBaseDir(); err != nil {
		t.Fatal(err)
	}
	c := New(layout, fsys.OSFS{}, &config.Root{}, nil, "/usr/bin/portty", io.Discard)

	lis, err := c.ListenControl()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lis.Close() })
	go c.ServeControl(lis)
	return c, lis
}

func roundTrip(t *testing.T, layout paths.Layout, line string) ctlproto.Response {
	t.Helper()
	conn, err := net.Dial("unix", layout.DaemonSocketPath())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := fmt.Fprintln(conn, line); err != nil {
		t.Fatal(err)
	}
	resp, err := ctlproto.ReadResponse(conn)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestControlSocketListRoundTrip(t *testing.T) {
	c, _ := newSocketCoordinator(t)

	resp := roundTrip(t, c.layout, "list")
	if resp.Err != "" || len(resp.Sessions) != 0 {
		t.Errorf("empty list = %+v, want bare ok", resp)
	}

	s, _, err := c.registry.CreateSession(c.layout, c.fs, sessionengine.CreateRequest{
		Portal: "file-chooser", Operation: "open-file",
		Title:       "pick\tsome\nfiles",
		BuiltinPath: "/usr/bin/portty",
	})
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		c.registry.Unregister(s.ID())
		s.Close()
	}()

	resp = roundTrip(t, c.layout, "list")
	if resp.Err != "" || len(resp.Sessions) != 1 {
		t.Fatalf("list = %+v, want one session", resp)
	}
	got := resp.Sessions[0]
	if got.ID != s.ID() || got.Portal != "file-chooser" || got.Operation != "open-file" {
		t.Errorf("session info = %+v", got)
	}
	// Embedded tab/newline in the title must have been sanitized.
	if got.Title != "pick some files" {
		t.Errorf("title = %q, want sanitized", got.Title)
	}
}

func TestControlSocketMalformedVerbErrors(t *testing.T) {
	c, _ := newSocketCoordinator(t)

	resp := roundTrip(t, c.layout, "frobnicate")
	if resp.Err == "" {
		t.Error("unknown verb should produce an error response")
	}
}

func TestControlSocketVerifyNoSession(t *testing.T) {
	c, _ := newSocketCoordinator(t)

	resp := roundTrip(t, c.layout, "verify")
	if resp.Err != "No active session to verify" {
		t.Errorf("err = %q", resp.Err)
	}
}
