package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/werdxz/portty/internal/ctlproto"
	"github.com/werdxz/portty/internal/paths"
)

// sendControl performs one request/response exchange with the daemon
// control socket: one line out, session-info lines plus a terminator
// back, then the connection closes.
func sendControl(layout paths.Layout, verb ctlproto.Verb, sessionID string) (ctlproto.Response, error) {
	conn, err := net.Dial("unix", layout.DaemonSocketPath())
	if err != nil {
		return ctlproto.Response{}, fmt.Errorf("connecting to daemon: %w", err)
	}
	defer conn.Close()

	line := string(verb)
	if sessionID != "" {
		line += " " + sessionID
	}
	if _, err := fmt.Fprintln(conn, line); err != nil {
		return ctlproto.Response{}, fmt.Errorf("sending request: %w", err)
	}

	resp, err := ctlproto.ReadResponse(conn)
	if err != nil {
		return ctlproto.Response{}, fmt.Errorf("reading response: %w", err)
	}
	return resp, nil
}

// resolveSession picks the session id a command targets. An explicit
// --session or the surrounding terminal's PORTTY_SESSION wins without
// touching the daemon. Otherwise the active sessions are listed:
// exactly one auto-targets it; more than one is ambiguous and the
// caller must say which. With zero sessions, verbs that require one
// fail here; daemon-scope verbs (submit, cancel) send an empty id and
// let the daemon apply its no-session semantics (queue or clear
// pending).
func resolveSession(stderr io.Writer, verb ctlproto.Verb, requireSession bool) (string, bool) {
	if sessionFlag != "" {
		return strings.TrimSpace(sessionFlag), true
	}
	if id := os.Getenv("PORTTY_SESSION"); id != "" {
		return id, true
	}

	resp, err := sendControl(paths.Default(), ctlproto.List, "")
	if err != nil {
		fmt.Fprintf(stderr, "portty %s: %v\n", verb, err) //nolint:errcheck // best-effort stderr
		return "", false
	}
	if resp.Err != "" {
		fmt.Fprintf(stderr, "portty %s: %s\n", verb, resp.Err) //nolint:errcheck // best-effort stderr
		return "", false
	}

	switch {
	case len(resp.Sessions) == 1:
		return resp.Sessions[0].ID, true
	case len(resp.Sessions) > 1:
		fmt.Fprintf(stderr, "portty %s: multiple sessions active (%d), specify --session\n", //nolint:errcheck // best-effort stderr
			verb, len(resp.Sessions))
		return "", false
	case requireSession:
		fmt.Fprintf(stderr, "portty %s: no active sessions\n", verb) //nolint:errcheck // best-effort stderr
		return "", false
	}
	return "", true
}

// controlVerb resolves the target session, runs a control verb against
// the daemon, and maps the response onto an exit code, printing any
// error to stderr.
func controlVerb(stderr io.Writer, verb ctlproto.Verb, requireSession bool) int {
	id, ok := resolveSession(stderr, verb, requireSession)
	if !ok {
		return 1
	}
	resp, err := sendControl(paths.Default(), verb, id)
	if err != nil {
		fmt.Fprintf(stderr, "portty %s: %v\n", verb, err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if resp.Err != "" {
		fmt.Fprintf(stderr, "portty %s: %s\n", verb, resp.Err) //nolint:errcheck // best-effort stderr
		return 1
	}
	return 0
}
