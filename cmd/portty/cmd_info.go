package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/werdxz/portty/internal/ctlproto"
	"github.com/werdxz/portty/internal/linefile"
	"github.com/werdxz/portty/internal/paths"
)

func cmdInfo(stdout, stderr io.Writer) int {
	ctx, err := detectContext()
	if err != nil {
		fmt.Fprintf(stderr, "portty info: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	if !ctx.inSession() {
		// Outside a session: ask the daemon which session a verb would
		// target and show its record.
		resp, err := sendControl(paths.Default(), ctlproto.List, "")
		if err != nil {
			fmt.Fprintf(stderr, "portty info: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		if resp.Err != "" {
			fmt.Fprintf(stderr, "portty info: %s\n", resp.Err) //nolint:errcheck // best-effort stderr
			return 1
		}
		switch {
		case len(resp.Sessions) == 0:
			fmt.Fprintln(stdout, "No active sessions") //nolint:errcheck // best-effort stdout
			pending := linefile.ReadLines(ctx.fs, ctx.layout.PendingSubmission())
			if len(pending) > 0 {
				fmt.Fprintf(stdout, "Pending entries (%d):\n", len(pending)) //nolint:errcheck // best-effort stdout
				for _, e := range pending {
					fmt.Fprintf(stdout, "  %s\n", e) //nolint:errcheck // best-effort stdout
				}
			}
			return 0
		case len(resp.Sessions) > 1:
			fmt.Fprintf(stderr, "portty info: multiple sessions active (%d), specify --session\n", //nolint:errcheck // best-effort stderr
				len(resp.Sessions))
			return 1
		}
		s := resp.Sessions[0]
		printSessionInfo(stdout, s.ID, s.Portal, s.Operation, s.Title, s.Dir,
			linefile.ReadLines(ctx.fs, filepath.Join(s.Dir, "submission")))
		return 0
	}

	printSessionInfo(stdout, ctx.sessionID, ctx.portal, ctx.operation, "", ctx.dir,
		linefile.ReadLines(ctx.fs, ctx.submissionPath()))
	if opts := ctx.optionsJSON(); len(opts) > 0 {
		fmt.Fprintf(stdout, "Options:\n%s\n", opts) //nolint:errcheck // best-effort stdout
	}
	return 0
}

func printSessionInfo(stdout io.Writer, id, portal, operation, title, dir string, entries []string) {
	fmt.Fprintf(stdout, "Session:   %s\n", id)        //nolint:errcheck // best-effort stdout
	fmt.Fprintf(stdout, "Portal:    %s\n", portal)    //nolint:errcheck // best-effort stdout
	fmt.Fprintf(stdout, "Operation: %s\n", operation) //nolint:errcheck // best-effort stdout
	if title != "" {
		fmt.Fprintf(stdout, "Title:     %s\n", title) //nolint:errcheck // best-effort stdout
	}
	fmt.Fprintf(stdout, "Directory: %s\n", dir) //nolint:errcheck // best-effort stdout
	fmt.Fprintf(stdout, "Entries (%d):\n", len(entries)) //nolint:errcheck // best-effort stdout
	for _, e := range entries {
		fmt.Fprintf(stdout, "  %s\n", e) //nolint:errcheck // best-effort stdout
	}
}
