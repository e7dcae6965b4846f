package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/ctlproto"
)

// newShimCmds returns the hidden commands the workspace bin/ shims
// exec into: sel/desel/reset map onto edit, the rest onto control
// verbs already exposed as first-class commands.
func newShimCmds(stdout, stderr io.Writer) []*cobra.Command {
	sel := &cobra.Command{
		Use:    "sel [items...]",
		Short:  "Add items to the selection (shim for edit)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stdin, _ := cmd.Flags().GetBool("stdin")
			if cmdEdit(args, editFlags{stdin: stdin}, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	sel.Flags().Bool("stdin", false, "read items from stdin")

	desel := &cobra.Command{
		Use:    "desel [items...]",
		Short:  "Remove items from the selection (shim for edit --remove)",
		Hidden: true,
		RunE: func(_ *cobra.Command, args []string) error {
			if cmdEdit(args, editFlags{remove: true}, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}

	reset := &cobra.Command{
		Use:    "reset",
		Short:  "Restore the session's initial entries (shim for edit --reset)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if controlVerb(stderr, ctlproto.Reset, true) != 0 {
				return errExit
			}
			return nil
		},
	}

	return []*cobra.Command{sel, desel, reset}
}
