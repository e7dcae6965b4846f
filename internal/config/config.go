// Package config loads and resolves config.toml: the operation/portal/
// root exec and bin settings every portal request folds to decide
// whether a session spawns a terminal or runs headless, and which
// shims its workspace gets.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/werdxz/portty/internal/fsys"
)

// Root is the top-level configuration. Exec/Bin set here apply to
// every portal and operation unless overridden at a more specific
// level. An empty or missing exec at all levels means headless mode
// for that operation.
type Root struct {
	Exec string `toml:"exec,omitempty"`

	// Bin maps shim name to a script body written into the session's
	// bin/ directory. An entry named after a default shim replaces it;
	// any other entry is written in addition to the defaults.
	Bin map[string]string `toml:"bin,omitempty"`

	// BinDir names a directory whose contents are copied into each
	// session's bin/ after the shims are written.
	BinDir string `toml:"bin_dir,omitempty"`

	// BuiltinPath is the executable the default shims exec into.
	// Empty means the running portty binary itself.
	BuiltinPath string `toml:"builtin_path,omitempty"`

	FileChooser Portal `toml:"file_chooser,omitempty"`
	Screenshot  Portal `toml:"screenshot,omitempty"`
}

// Portal holds per-portal defaults plus any per-operation overrides.
type Portal struct {
	Exec   string            `toml:"exec,omitempty"`
	Bin    map[string]string `toml:"bin,omitempty"`
	BinDir string            `toml:"bin_dir,omitempty"`

	Operations map[string]Operation `toml:"operations,omitempty"`
}

// Operation is the most specific level of the fold: settings here win
// over the portal's and the root's.
type Operation struct {
	Exec   string            `toml:"exec,omitempty"`
	Bin    map[string]string `toml:"bin,omitempty"`
	BinDir string            `toml:"bin_dir,omitempty"`
}

// Load reads and parses the config file at path. All file I/O goes through
// fs for testability.
func Load(fs fsys.FS, path string) (*Root, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: loading %q: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault reads the config at path, returning an empty Root
// (every operation headless, default shims only) when the file is
// missing. Other read errors are still reported.
func LoadOrDefault(fs fsys.FS, path string) (*Root, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Root{}, nil
		}
		return nil, fmt.Errorf("config: loading %q: %w", path, err)
	}
	return Parse(data)
}

// DefaultPath returns the user config location,
// ~/.config/portty/config.toml, honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "portty", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/etc", "portty", "config.toml")
	}
	return filepath.Join(home, ".config", "portty", "config.toml")
}

// Parse decodes TOML bytes into a Root config.
func Parse(data []byte) (*Root, error) {
	var cfg Root
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	return &cfg, nil
}

// Marshal encodes a Root back to TOML, used by `portty config` to
// write out a starting file.
func (r *Root) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("config: marshaling: %w", err)
	}
	return buf.Bytes(), nil
}

// portalConfig returns the Portal block for a portal name, or the zero
// value if the root has none configured for it.
func (r *Root) portalConfig(portal string) Portal {
	switch portal {
	case "file-chooser":
		return r.FileChooser
	case "screenshot":
		return r.Screenshot
	default:
		return Portal{}
	}
}
