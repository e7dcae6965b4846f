// Package pipeline validates and shapes the raw entries a session
// produces into the typed result each portal operation promises its
// caller. It owns the one bit of domain logic the daemon itself stays
// ignorant of: what an "entry" must look like for a given portal
// operation, and how it becomes a portal-shaped result.
package pipeline

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/linefile"
)

// FileChooserOptions is the option blob written to options.json for
// file-chooser sessions. Helper scripts and validation treat it as
// immutable after session creation.
type FileChooserOptions struct {
	Title         string   `json:"title"`
	Multiple      bool     `json:"multiple"`
	Directory     bool     `json:"directory"`
	SaveMode      bool     `json:"save_mode"`
	CurrentFolder string   `json:"current_folder,omitempty"`
	Candidates    []string `json:"candidates,omitempty"`
	Filters       []Filter `json:"filters,omitempty"`
}

// Filter is one named file filter offered to the user.
type Filter struct {
	Name     string          `json:"name"`
	Patterns []FilterPattern `json:"patterns"`
}

// FilterPattern is a single glob or MIME-type pattern within a Filter.
type FilterPattern struct {
	Kind    string `json:"kind"` // "glob" or "mime"
	Pattern string `json:"pattern"`
}

// Env renders the option-to-environment mapping for spawned terminals.
func (o FileChooserOptions) Env() []string {
	env := []string{
		"PORTTY_TITLE=" + o.Title,
		"PORTTY_MULTIPLE=" + boolEnv(o.Multiple),
		"PORTTY_DIRECTORY=" + boolEnv(o.Directory),
		"PORTTY_SAVE_MODE=" + boolEnv(o.SaveMode),
	}
	if o.CurrentFolder != "" {
		env = append(env, "PORTTY_CURRENT_FOLDER="+o.CurrentFolder)
	}
	if len(o.Candidates) > 0 {
		env = append(env, "PORTTY_CANDIDATES="+strings.Join(o.Candidates, "\n"))
	}
	return env
}

// ScreenshotOptions is the option blob for screenshot sessions.
type ScreenshotOptions struct {
	Interactive bool   `json:"interactive"`
	AppID       string `json:"app_id"`
	Modal       bool   `json:"modal"`
}

// Env renders the option-to-environment mapping for spawned terminals.
func (o ScreenshotOptions) Env() []string {
	return []string{
		"PORTTY_INTERACTIVE=" + boolEnv(o.Interactive),
		"PORTTY_APP_ID=" + o.AppID,
		"PORTTY_MODAL=" + boolEnv(o.Modal),
	}
}

func boolEnv(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Color is an sRGB triple in [0, 1], the pick-color result shape.
type Color struct {
	R, G, B float64
}

// Validate dispatches to the rule set for portal/operation. entries
// are the raw lines a session (or a queued submission) produced;
// optionsJSON is the verbatim options.json blob. The returned strings
// are file:// URIs for file-chooser portals (relative paths resolved
// against current_folder when one is set; entries that already carry
// another scheme, such as http://, pass through unchanged) and either
// a URI or a canonical color string for screenshot. No step silently drops
// entries.
func Validate(fs fsys.FS, portal, operation string, entries []string, optionsJSON []byte) ([]string, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("pipeline: no entries in submission")
	}

	switch portal {
	case "file-chooser":
		var opts FileChooserOptions
		if len(optionsJSON) > 0 {
			if err := json.Unmarshal(optionsJSON, &opts); err != nil {
				return nil, fmt.Errorf("pipeline: invalid options: %w", err)
			}
		}
		return validateFileChooser(fs, operation, entries, opts)
	case "screenshot":
		return validateScreenshot(operation, entries)
	default:
		return nil, fmt.Errorf("pipeline: unknown portal %q", portal)
	}
}

// validateFileChooser enforces the arity rules for open-file,
// save-file, and save-files and resolves every entry to an absolute
// file:// URI. Relative entries resolve against the current_folder
// option.
func validateFileChooser(fs fsys.FS, operation string, entries []string, opts FileChooserOptions) ([]string, error) {
	switch operation {
	case "save-file":
		if len(entries) > 1 {
			return nil, fmt.Errorf("pipeline: save-file expects 1 entry, got %d", len(entries))
		}
		var candidate string
		if len(opts.Candidates) > 0 {
			candidate = opts.Candidates[0]
		}
		selected := resolvePath(entries[0], opts.CurrentFolder)
		if candidate != "" && isDir(fs, selected) {
			selected = filepath.Join(selected, candidate)
		}
		return []string{toFileURI(selected)}, nil

	case "save-files":
		if len(opts.Candidates) == 0 {
			return resolveAll(entries, opts.CurrentFolder), nil
		}
		// The user selected a destination folder; each candidate joins
		// to it to produce one URI per candidate.
		folder := resolvePath(entries[0], opts.CurrentFolder)
		if isFile(fs, folder) {
			folder = filepath.Dir(folder)
		}
		uris := make([]string, 0, len(opts.Candidates))
		for _, name := range opts.Candidates {
			uris = append(uris, toFileURI(filepath.Join(folder, name)))
		}
		return uris, nil

	case "open-file":
		if !opts.Multiple && len(entries) > 1 {
			return nil, fmt.Errorf("pipeline: single-pick expects 1 entry, got %d", len(entries))
		}
		return resolveAll(entries, opts.CurrentFolder), nil

	default:
		return resolveAll(entries, opts.CurrentFolder), nil
	}
}

// validateScreenshot enforces the screenshot/pick-color rules:
// exactly one entry, and for pick-color a parseable color string.
// The returned pick-color entry is the canonical (trimmed, lowercase)
// form of the submitted color.
func validateScreenshot(operation string, entries []string) ([]string, error) {
	if len(entries) > 1 {
		return nil, fmt.Errorf("pipeline: screenshot expects 1 entry, got %d", len(entries))
	}

	switch operation {
	case "pick-color":
		colorStr := strings.TrimPrefix(entries[0], "file://")
		if _, err := ParseColor(colorStr); err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		return []string{strings.ToLower(strings.TrimSpace(colorStr))}, nil
	default:
		return []string{toFileURI(entries[0])}, nil
	}
}

func resolveAll(entries []string, currentFolder string) []string {
	uris := make([]string, 0, len(entries))
	for _, e := range entries {
		uris = append(uris, toFileURI(resolvePath(e, currentFolder)))
	}
	return uris
}

// resolvePath strips a file:// prefix and resolves a relative path
// against currentFolder. Entries carrying any other scheme (http://,
// https://) pass through untouched — they are already URIs, not
// paths, and must never be joined onto a folder. An absolute path
// passes through; a relative path with no current folder is left
// relative (the caller was explicit).
func resolvePath(entry, currentFolder string) string {
	p, hadFilePrefix := strings.CutPrefix(entry, "file://")
	if !hadFilePrefix && strings.Contains(entry, "://") {
		return entry
	}
	if filepath.IsAbs(p) || currentFolder == "" {
		return p
	}
	return filepath.Join(currentFolder, p)
}

// pathToFileURI percent-encodes a path as a file:// URI.
func pathToFileURI(p string) string {
	u := &url.URL{Scheme: "file", Path: p}
	return u.String()
}

// toFileURI passes already-schemed URIs through unchanged and encodes
// everything else as a file:// URI.
func toFileURI(entry string) string {
	if strings.Contains(entry, "://") {
		return entry
	}
	return pathToFileURI(entry)
}

// PathFromFileURI decodes a file:// URI back to the path it encodes.
// Non-file URIs and bare paths are returned unchanged.
func PathFromFileURI(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}

func isDir(fs fsys.FS, p string) bool {
	info, err := fs.Stat(p)
	return err == nil && info.IsDir()
}

func isFile(fs fsys.FS, p string) bool {
	info, err := fs.Stat(p)
	return err == nil && !info.IsDir()
}

// ParseColor accepts #rrggbb hex (case-insensitive), rgb(r,g,b) with
// 0-255 integers, or three whitespace-separated floats each in [0, 1].
// Out-of-range floats are rejected rather than clamped.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)

	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return Color{}, fmt.Errorf("hex color %q must have exactly 6 digits", s)
		}
		var c [3]uint64
		for i := range c {
			n, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid hex color %q", s)
			}
			c[i] = n
		}
		return Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}, nil
	}

	if inner, ok := strings.CutPrefix(s, "rgb("); ok {
		inner, ok = strings.CutSuffix(inner, ")")
		if !ok {
			return Color{}, fmt.Errorf("unterminated rgb() color %q", s)
		}
		parts := strings.Split(inner, ",")
		if len(parts) != 3 {
			return Color{}, fmt.Errorf("rgb() color %q must have exactly 3 components", s)
		}
		var c [3]uint64
		for i, p := range parts {
			n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return Color{}, fmt.Errorf("invalid rgb() component %q in %q", p, s)
			}
			c[i] = n
		}
		return Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255}, nil
	}

	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Color{}, fmt.Errorf("invalid color %q (expected #rrggbb, rgb(r,g,b), or three floats)", s)
	}
	var vals [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Color{}, fmt.Errorf("invalid float component %q in %q", p, s)
		}
		if f < 0 || f > 1 {
			return Color{}, fmt.Errorf("color component %v in %q is outside [0, 1]", f, s)
		}
		vals[i] = f
	}
	return Color{R: vals[0], G: vals[1], B: vals[2]}, nil
}

// AddResult reports how AddEntries changed the submission file.
type AddResult struct {
	Appended bool
	Count    int
}

// AddEntries applies the per-portal add policy to a submission file:
// multi-pick file-chooser sessions append, every other mode (single
// pick, save, save-multiple, screenshot) replaces the whole file. The
// policy lives here because it is a portal semantic, not a UI
// affordance; the CLI merely reports which one happened.
func AddEntries(fs fsys.FS, submissionPath, portal string, entries []string, optionsJSON []byte) (AddResult, error) {
	multi := false
	if portal == "file-chooser" && len(optionsJSON) > 0 {
		var opts FileChooserOptions
		if err := json.Unmarshal(optionsJSON, &opts); err != nil {
			return AddResult{}, fmt.Errorf("pipeline: invalid options: %w", err)
		}
		multi = opts.Multiple && !opts.SaveMode
	}

	if multi {
		if err := linefile.AppendLines(fs, submissionPath, entries); err != nil {
			return AddResult{}, err
		}
		return AddResult{Appended: true, Count: len(entries)}, nil
	}
	if err := linefile.WriteLines(fs, submissionPath, entries); err != nil {
		return AddResult{}, err
	}
	return AddResult{Count: len(entries)}, nil
}
