package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/fsys"
	"github.com/werdxz/portty/internal/paths"
	"github.com/werdxz/portty/internal/sessionengine"
)

func newQueueCmd(stdout, stderr io.Writer) *cobra.Command {
	var portalFlag string
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Freeze pending entries into the submission queue",
		Long: `Freeze the pending staging file into a queued submission that the
next matching portal request consumes immediately, without opening a
dialog. Works directly on the filesystem; no daemon is required.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdQueue(portalFlag, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&portalFlag, "portal", "",
		"portal the queued submission is for (default: any)")
	return cmd
}

func cmdQueue(portal string, stdout, stderr io.Writer) int {
	layout := paths.Default()
	if err := layout.EnsureBaseDir(); err != nil {
		fmt.Fprintf(stderr, "portty queue: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	queued, err := sessionengine.QueueSubmission(layout, fsys.OSFS{}, time.Now().UnixMilli(), portal)
	if err != nil {
		fmt.Fprintf(stderr, "portty queue: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if !queued {
		fmt.Fprintf(stderr, "portty queue: no pending entries\n") //nolint:errcheck // best-effort stderr
		return 1
	}
	fmt.Fprintln(stdout, "Queued") //nolint:errcheck // best-effort stdout
	return 0
}
