// Package paths derives the per-user workspace layout every other
// component builds on: one base directory per UID, owned 0700, under
// the local temp filesystem.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Layout is the set of paths rooted at a single base directory.
// Tests construct a Layout over a t.TempDir() base instead of the real
// per-uid temp directory.
type Layout struct {
	base string
}

// ForUID returns the layout rooted at <temp-root>/portty/<uid>.
func ForUID(uid int) Layout {
	return Layout{base: filepath.Join(os.TempDir(), "portty", fmt.Sprintf("%d", uid))}
}

// ForBase returns the layout rooted at an explicit base directory.
func ForBase(base string) Layout {
	return Layout{base: base}
}

// Default returns the layout for the calling process's UID. The
// PORTTY_BASE environment variable overrides the derived base; the
// daemon and CLI must agree on it, so it is set process-wide, not
// per-session.
func Default() Layout {
	if base := os.Getenv("PORTTY_BASE"); base != "" {
		return ForBase(base)
	}
	return ForUID(os.Getuid())
}

// BaseDir is <temp-root>/portty/<uid>.
func (l Layout) BaseDir() string { return l.base }

// DaemonSocketPath is the control-socket path.
func (l Layout) DaemonSocketPath() string { return filepath.Join(l.base, "daemon.sock") }

// DaemonCtlPath is the fire-and-forget FIFO path.
func (l Layout) DaemonCtlPath() string { return filepath.Join(l.base, "daemon.ctl") }

// DaemonLockPath is the flock single-instance lock.
func (l Layout) DaemonLockPath() string { return filepath.Join(l.base, "daemon.lock") }

// DaemonPIDPath is where the running daemon records its own pid.
func (l Layout) DaemonPIDPath() string { return filepath.Join(l.base, "daemon.pid") }

// EventsLogPath is the structured session-lifecycle event log.
func (l Layout) EventsLogPath() string { return filepath.Join(l.base, "events.jsonl") }

// PendingDir is the staging directory for pre-session edits.
func (l Layout) PendingDir() string { return filepath.Join(l.base, "pending") }

// PendingSubmission is the single line-file that accumulates pre-session entries.
func (l Layout) PendingSubmission() string { return filepath.Join(l.PendingDir(), "submission") }

// SubmissionsDir is the FIFO-of-directories queue awaiting matching sessions.
func (l Layout) SubmissionsDir() string { return filepath.Join(l.base, "submissions") }

// SessionDir is the workspace directory for the given session id.
func (l Layout) SessionDir(id string) string { return filepath.Join(l.base, id) }

// EnsureBaseDir creates the parent at 0755 and the base at 0700, tolerating
// prior existence. It fails with a permission error if the base directory
// exists and is owned by a different UID, and corrects the mode to 0700 if
// it disagrees on an otherwise correctly-owned directory.
//
// Every component that touches the filesystem calls this first; it is the
// sole place mode/ownership policy lives.
func (l Layout) EnsureBaseDir() error {
	parent := filepath.Dir(l.base)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("paths: create parent %s: %w", parent, err)
	}

	if err := os.Mkdir(l.base, 0o700); err != nil && !os.IsExist(err) {
		return fmt.Errorf("paths: create base %s: %w", l.base, err)
	}

	info, err := os.Stat(l.base)
	if err != nil {
		return fmt.Errorf("paths: stat base %s: %w", l.base, err)
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fmt.Errorf("paths: cannot determine owner of %s", l.base)
	}
	if int(stat.Uid) != os.Getuid() {
		return fmt.Errorf("paths: %s is owned by uid %d, not %d", l.base, stat.Uid, os.Getuid())
	}

	if info.Mode().Perm() != 0o700 {
		if err := os.Chmod(l.base, 0o700); err != nil {
			return fmt.Errorf("paths: fix mode on %s: %w", l.base, err)
		}
	}

	for _, sub := range []string{l.PendingDir(), l.SubmissionsDir()} {
		if err := os.MkdirAll(sub, 0o700); err != nil {
			return fmt.Errorf("paths: create %s: %w", sub, err)
		}
	}

	return nil
}
