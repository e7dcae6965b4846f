package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/ctlproto"
	"github.com/werdxz/portty/internal/paths"
)

func newSubmitCmd(_, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "submit",
		Short: "Confirm the submission (or queue pending entries)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if controlVerb(stderr, ctlproto.Submit, false) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func newCancelCmd(_, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the session (or clear pending entries)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if controlVerb(stderr, ctlproto.Cancel, false) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func newVerifyCmd(_, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Validate the current submission against its portal rules",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if controlVerb(stderr, ctlproto.Verify, true) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func newListCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active sessions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdList(stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func cmdList(stdout, stderr io.Writer) int {
	resp, err := sendControl(paths.Default(), ctlproto.List, "")
	if err != nil {
		fmt.Fprintf(stderr, "portty list: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if resp.Err != "" {
		fmt.Fprintf(stderr, "portty list: %s\n", resp.Err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if len(resp.Sessions) == 0 {
		fmt.Fprintln(stdout, "No active sessions") //nolint:errcheck // best-effort stdout
		return 0
	}
	for _, s := range resp.Sessions {
		title := s.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(stdout, "%s  %s/%s  %s\n", s.ID, s.Portal, s.Operation, title) //nolint:errcheck // best-effort stdout
	}
	return 0
}

func newInfoCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the targeted session's portal, options, and entries",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdInfo(stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}
