package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/ctlproto"
	"github.com/werdxz/portty/internal/linefile"
	"github.com/werdxz/portty/internal/pipeline"
)

func newEditCmd(stdout, stderr io.Writer) *cobra.Command {
	var stdinFlag, removeFlag, clearFlag, resetFlag bool
	cmd := &cobra.Command{
		Use:   "edit [items...]",
		Short: "Edit the current submission (session or pending)",
		Long: `Edit the submission of the surrounding session, or the pending
staging file when no session is active. With no items and no flags,
prints the current entries.`,
		RunE: func(_ *cobra.Command, args []string) error {
			if cmdEdit(args, editFlags{stdin: stdinFlag, remove: removeFlag, clear: clearFlag, reset: resetFlag}, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stdinFlag, "stdin", false, "read items from stdin, one per line")
	cmd.Flags().BoolVar(&removeFlag, "remove", false, "remove the given items instead of adding")
	cmd.Flags().BoolVar(&clearFlag, "clear", false, "clear all entries")
	cmd.Flags().BoolVar(&resetFlag, "reset", false, "restore the session's initial entries")
	return cmd
}

type editFlags struct {
	stdin, remove, clear, reset bool
}

func cmdEdit(args []string, flags editFlags, stdout, stderr io.Writer) int {
	ctx, err := detectContext()
	if err != nil {
		fmt.Fprintf(stderr, "portty edit: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	switch {
	case flags.reset:
		if !ctx.inSession() {
			fmt.Fprintf(stderr, "portty edit: --reset needs an active session\n") //nolint:errcheck // best-effort stderr
			return 1
		}
		return controlVerb(stderr, ctlproto.Reset, true)

	case flags.clear:
		if err := linefile.WriteLines(ctx.fs, ctx.submissionPath(), nil); err != nil {
			fmt.Fprintf(stderr, "portty edit: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		return 0
	}

	items := args
	if flags.stdin {
		items = append(items, readStdinItems()...)
	}

	if flags.remove {
		removeSet := make(map[string]struct{}, len(items))
		for _, it := range items {
			removeSet[it] = struct{}{}
		}
		if err := linefile.RemoveLines(ctx.fs, ctx.submissionPath(), removeSet); err != nil {
			fmt.Fprintf(stderr, "portty edit: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		return 0
	}

	if len(items) == 0 {
		// Show the current entries.
		for _, line := range linefile.ReadLines(ctx.fs, ctx.submissionPath()) {
			fmt.Fprintln(stdout, line) //nolint:errcheck // best-effort stdout
		}
		return 0
	}

	if !ctx.inSession() {
		// Pending is a staging area: edits always accumulate.
		if err := linefile.AppendLines(ctx.fs, ctx.submissionPath(), items); err != nil {
			fmt.Fprintf(stderr, "portty edit: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		fmt.Fprintf(stdout, "Added %d entries\n", len(items)) //nolint:errcheck // best-effort stdout
		return 0
	}

	res, err := pipeline.AddEntries(ctx.fs, ctx.submissionPath(), ctx.portal, items, ctx.optionsJSON())
	if err != nil {
		fmt.Fprintf(stderr, "portty edit: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if res.Appended {
		fmt.Fprintf(stdout, "Added %d entries\n", res.Count) //nolint:errcheck // best-effort stdout
	} else {
		fmt.Fprintf(stdout, "Replaced selection\n") //nolint:errcheck // best-effort stdout
	}
	return 0
}

// readStdinItems collects non-empty lines from stdin. URIs pass
// through unchanged; everything else is kept verbatim and resolved by
// the validation pipeline at submit time.
func readStdinItems() []string {
	var items []string
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
