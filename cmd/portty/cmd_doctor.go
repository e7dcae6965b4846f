package main

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/werdxz/portty/internal/config"
	"github.com/werdxz/portty/internal/doctor"
	"github.com/werdxz/portty/internal/paths"
)

func newDoctorCmd(stdout, stderr io.Writer) *cobra.Command {
	var fix, verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the portty installation",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmdDoctor(fix, verbose, stdout) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt automatic remediation")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show check details")
	return cmd
}

func cmdDoctor(fix, verbose bool, stdout io.Writer) int {
	d := &doctor.Doctor{}
	for _, c := range doctor.DefaultChecks() {
		d.Register(c)
	}

	ctx := &doctor.CheckContext{
		Layout:     paths.Default(),
		ConfigPath: config.DefaultPath(),
		Verbose:    verbose,
	}
	report := d.Run(ctx, stdout, fix)
	doctor.PrintSummary(stdout, report)

	if report.Failed > 0 {
		return 1
	}
	return 0
}
