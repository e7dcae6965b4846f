package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/events"
	"github.com/werdxz/portty/internal/paths"
)

func newEventsCmd(stdout, stderr io.Writer) *cobra.Command {
	var follow bool
	var typeFilter string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the session-lifecycle event log",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdEvents(follow, typeFilter, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "wait for new events")
	cmd.Flags().StringVar(&typeFilter, "type", "", "only show events of this type")
	return cmd
}

func cmdEvents(follow bool, typeFilter string, stdout, stderr io.Writer) int {
	path := paths.Default().EventsLogPath()

	all, err := events.ReadFiltered(path, events.Filter{Type: typeFilter})
	if err != nil {
		fmt.Fprintf(stderr, "portty events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	for _, e := range all {
		printEvent(stdout, e)
	}
	if !follow {
		return 0
	}

	var lastSeq uint64
	if len(all) > 0 {
		lastSeq = all[len(all)-1].Seq
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rec, err := events.NewFileRecorder(path, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "portty events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer rec.Close() //nolint:errcheck // best-effort cleanup

	w, err := rec.Watch(ctx, lastSeq)
	if err != nil {
		fmt.Fprintf(stderr, "portty events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer w.Close() //nolint:errcheck // best-effort cleanup

	for {
		e, err := w.Next()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return 0
			}
			fmt.Fprintf(stderr, "portty events: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		if typeFilter != "" && e.Type != typeFilter {
			continue
		}
		printEvent(stdout, e)
	}
}

func printEvent(stdout io.Writer, e events.Event) {
	subject := e.Subject
	if subject == "" {
		subject = "-"
	}
	msg := ""
	if e.Message != "" {
		msg = "  " + e.Message
	}
	fmt.Fprintf(stdout, "%s  %-20s %s%s\n", e.Ts.Format("2006-01-02 15:04:05"), e.Type, subject, msg) //nolint:errcheck // best-effort stdout
}
