// portty is a terminal-backed xdg-desktop-portal backend: the daemon
// exposes the FileChooser and Screenshot portals on the session bus
// and delegates the interactive part to a terminal program; the same
// binary is the CLI that drives an active session.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to
// signal non-zero exit. The command has already written its own error
// to stderr.
var errExit = errors.New("exit")

// sessionFlag holds the value of the --session persistent flag. Empty
// means "auto-detect": the PORTTY_SESSION environment variable inside
// a session terminal, otherwise the only active session the daemon
// lists; with several active sessions the command fails and asks for
// --session.
var sessionFlag string

// run executes the portty CLI with the given args, writing output to
// stdout and errors to stderr. Returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var listFlag bool
	root := &cobra.Command{
		Use:           "portty",
		Short:         "portty — drive xdg portal sessions from a terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFlag {
				if cmdList(stdout, stderr) != 0 {
					return errExit
				}
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "portty: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().StringVarP(&sessionFlag, "session", "s", "",
		"target a specific session by id")
	root.Flags().BoolVar(&listFlag, "list", false, "list active sessions")
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newDaemonCmd(stdout, stderr),
		newEditCmd(stdout, stderr),
		newSubmitCmd(stdout, stderr),
		newCancelCmd(stdout, stderr),
		newInfoCmd(stdout, stderr),
		newVerifyCmd(stdout, stderr),
		newListCmd(stdout, stderr),
		newQueueCmd(stdout, stderr),
		newConfigCmd(stdout, stderr),
		newDoctorCmd(stdout, stderr),
		newEventsCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	// Shim entrypoints: the workspace bin/ scripts exec the portty
	// binary with one of these names as the subcommand.
	root.AddCommand(newShimCmds(stdout, stderr)...)
	return root
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print portty version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "portty %s (commit: %s, built: %s)\n", version, commit, date) //nolint:errcheck // best-effort stdout
		},
	}
}

// Build metadata — injected via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)
