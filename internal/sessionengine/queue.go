package sessionengine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/linefile"
	"github.com/werdxz/portty/internal/paths"
)

// DrainPendingInto appends <base>/pending/submission into the session's
// submission file, then truncates pending only on successful append —
// append-then-truncate, so a failure mid-drain never loses entries.
// Returns the number of entries drained.
func DrainPendingInto(layout paths.Layout, fs fsys.FS, s *Session) (int, error) {
	pending := linefile.ReadLines(fs, layout.PendingSubmission())
	if len(pending) == 0 {
		return 0, nil
	}

	if err := linefile.AppendLines(fs, s.SubmissionPath(), pending); err != nil {
		return 0, fmt.Errorf("sessionengine: drain pending into %s: %w", s.ID(), err)
	}
	if err := linefile.WriteLines(fs, layout.PendingSubmission(), nil); err != nil {
		return 0, fmt.Errorf("sessionengine: truncate pending after drain: %w", err)
	}
	return len(pending), nil
}

// QueuedSubmission is one frozen, not-yet-consumed submission read back
// from the submissions/ directory.
type QueuedSubmission struct {
	Dir     string
	Portal  string // concrete portal name, or "any"
	Entries []string
}

// wildcardPortal is the directory-name suffix matching any portal.
const wildcardPortal = "any"

// QueueSubmission freezes the current pending entries into a new
// directory under submissions/, named "<ms>-<portal>" (portal may be
// wildcardPortal). Clears pending on success. No-op if pending is empty.
func QueueSubmission(layout paths.Layout, fs fsys.FS, nowMillis int64, portal string) (bool, error) {
	pending := linefile.ReadLines(fs, layout.PendingSubmission())
	if len(pending) == 0 {
		return false, nil
	}
	if portal == "" {
		portal = wildcardPortal
	}

	dir := filepath.Join(layout.SubmissionsDir(), fmt.Sprintf("%d-%s", nowMillis, portal))
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Errorf("sessionengine: create queue dir: %w", err)
	}
	// The directory and its submission file are both created before any
	// reader scans submissions/: a queued submission is never partially
	// visible.
	if err := linefile.WriteLines(fs, filepath.Join(dir, "submission"), pending); err != nil {
		return false, fmt.Errorf("sessionengine: write queued submission: %w", err)
	}
	if err := linefile.WriteLines(fs, layout.PendingSubmission(), nil); err != nil {
		return false, fmt.Errorf("sessionengine: clear pending after queue: %w", err)
	}
	return true, nil
}

// PopQueuedSubmission consumes the lexicographically earliest directory
// in submissions/ whose suffix is portal or the wildcard "any". Earliest
// by directory name wins regardless of specificity: a wildcard queued
// first is returned before a portal-specific submission queued after
// it. Returns (nil, nil) if nothing matches.
func PopQueuedSubmission(layout paths.Layout, fs fsys.FS, portal string) (*QueuedSubmission, error) {
	entries, err := fs.ReadDir(layout.SubmissionsDir())
	if err != nil {
		return nil, nil //nolint:nilerr // missing submissions/ just means no queue yet
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Directory names are "<ms>-<portal>"; the portal token itself
		// may contain hyphens, so split at the first one only.
		name := entry.Name()
		parts := strings.SplitN(name, "-", 2)
		if len(parts) != 2 {
			continue
		}
		suffix := parts[1]
		if suffix != portal && suffix != wildcardPortal {
			continue
		}

		dir := filepath.Join(layout.SubmissionsDir(), name)
		qs := &QueuedSubmission{
			Dir:     dir,
			Portal:  suffix,
			Entries: linefile.ReadLines(fs, filepath.Join(dir, "submission")),
		}
		if err := fs.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("sessionengine: remove consumed queue dir: %w", err)
		}
		return qs, nil
	}

	return nil, nil
}
