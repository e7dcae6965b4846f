package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/config"
	"github.com/werdxz/portty/internal/fsys"
)

func newConfigCmd(stdout, stderr io.Writer) *cobra.Command {
	var initFlag bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration (or write a starter file)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdConfig(initFlag, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&initFlag, "init", false, "write a starter config file if none exists")
	return cmd
}

func cmdConfig(initFlag bool, stdout, stderr io.Writer) int {
	path := config.DefaultPath()

	if initFlag {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(stderr, "portty config: %s already exists\n", path) //nolint:errcheck // best-effort stderr
			return 1
		}
		starter := &config.Root{
			FileChooser: config.Portal{Exec: "foot -e fzf-picker"},
		}
		data, err := starter.Marshal()
		if err != nil {
			fmt.Fprintf(stderr, "portty config: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(stderr, "portty config: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(stderr, "portty config: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		fmt.Fprintf(stdout, "Wrote %s\n", path) //nolint:errcheck // best-effort stdout
		return 0
	}

	cfg, err := config.LoadOrDefault(fsys.OSFS{}, path)
	if err != nil {
		fmt.Fprintf(stderr, "portty config: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	data, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintf(stderr, "portty config: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	fmt.Fprintf(stdout, "# %s\n%s", path, data) //nolint:errcheck // best-effort stdout
	return 0
}
