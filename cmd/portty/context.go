package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/linefile"
	"github.com/werdxz/portty/internal/paths"
)

// cliContext is where an invocation operates: inside a session
// terminal (workspace files directly) or outside one (the pending
// directory plus the daemon socket).
type cliContext struct {
	layout paths.Layout
	fs     fsys.FS

	// Session fields, populated when running inside a session terminal
	// (PORTTY_SESSION set) or when --session resolves against a live
	// workspace directory.
	sessionID string
	dir       string
	portal    string
	operation string
}

// inSession reports whether edits target a session workspace rather
// than the pending staging file.
func (c *cliContext) inSession() bool { return c.dir != "" }

func (c *cliContext) submissionPath() string {
	if c.inSession() {
		return filepath.Join(c.dir, "submission")
	}
	return c.layout.PendingSubmission()
}

func (c *cliContext) optionsJSON() []byte {
	if !c.inSession() {
		return nil
	}
	data, err := c.fs.ReadFile(filepath.Join(c.dir, "options.json"))
	if err != nil {
		return nil
	}
	return data
}

// detectContext builds the invocation context. Inside a session
// terminal the PORTTY_* variables identify the workspace with zero
// I/O; outside one, a --session id maps to that session's workspace
// under the base directory, and with no id at all edits land in
// pending.
func detectContext() (*cliContext, error) {
	ctx := &cliContext{layout: paths.Default(), fs: fsys.OSFS{}}

	id := sessionFlag
	if id == "" {
		id = os.Getenv("PORTTY_SESSION")
		if id == "" {
			// Pending-directory context: the staging subtree must exist
			// before the first edit lands in it.
			if err := ctx.layout.EnsureBaseDir(); err != nil {
				return nil, err
			}
			return ctx, nil
		}
	}

	dir := os.Getenv("PORTTY_DIR")
	if os.Getenv("PORTTY_SESSION") != id || dir == "" {
		// Explicit --session outside that session's terminal: the
		// workspace lives at a well-known path.
		dir = ctx.layout.SessionDir(id)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("session %s has no workspace at %s", id, dir)
	}

	ctx.sessionID = id
	ctx.dir = dir
	ctx.portal = os.Getenv("PORTTY_PORTAL")
	ctx.operation = os.Getenv("PORTTY_OPERATION")
	if ctx.portal == "" || ctx.operation == "" {
		ctx.portal, ctx.operation = readPortalFile(ctx.fs, dir)
	}
	return ctx, nil
}

// readPortalFile recovers portal/operation from the workspace's portal
// file for invocations outside the session environment.
func readPortalFile(fs fsys.FS, dir string) (portal, operation string) {
	lines := linefile.ReadLines(fs, filepath.Join(dir, "portal"))
	if len(lines) > 0 {
		portal = lines[0]
	}
	if len(lines) > 1 {
		operation = lines[1]
	}
	return portal, operation
}
