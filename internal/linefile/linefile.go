// Package linefile implements the newline-delimited entry file shape
// shared by sessions and the CLI as a mutable-state substrate.
//
// It is the only place that defines the encoding: one entry per line,
// trailing newline, no quoting. No other component reinvents it.
package linefile

import (
	"strings"

	"github.com/werdxz/portty/internal/fsys"
)

// ReadLines returns the non-empty lines of path. Any IO error (including
// the file not existing) is absorbed into an empty slice; callers
// interpret emptiness, not the distinction between "missing" and "empty".
func ReadLines(fs fsys.FS, path string) []string {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil
	}
	return splitNonEmpty(string(data))
}

// WriteLines rewrites path with one entry per line, trailing newline, or
// truncates the file when lines is empty.
func WriteLines(fs fsys.FS, path string, lines []string) error {
	return fs.WriteFile(path, []byte(joinWithTrailingNewline(lines)), 0o644)
}

// AppendLines opens path create-or-append and writes each entry with a
// trailing newline.
func AppendLines(fs fsys.FS, path string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	return fs.AppendFile(path, []byte(joinWithTrailingNewline(lines)), 0o644)
}

// RemoveLines reads path, filters out any entry present in remove, and
// rewrites the file. Order of the remaining entries is preserved.
func RemoveLines(fs fsys.FS, path string, remove map[string]struct{}) error {
	current := ReadLines(fs, path)
	kept := make([]string, 0, len(current))
	for _, line := range current {
		if _, drop := remove[line]; drop {
			continue
		}
		kept = append(kept, line)
	}
	return WriteLines(fs, path, kept)
}

func splitNonEmpty(data string) []string {
	raw := strings.Split(data, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func joinWithTrailingNewline(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Exists reports whether path currently exists; an empty file counts.
func Exists(fs fsys.FS, path string) bool {
	_, err := fs.Stat(path)
	return err == nil
}
