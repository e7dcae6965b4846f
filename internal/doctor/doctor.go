package doctor

import (
	"fmt"
	"io"
	"strings"
)

// Report tallies a doctor run over one portty installation.
type Report struct {
	// Passed is the number of checks with StatusOK (fixed ones included).
	Passed int
	// Warned is the number of checks with StatusWarning.
	Warned int
	// Failed is the number of checks with StatusError.
	Failed int
	// Fixed is the number of checks remediated by --fix.
	Fixed int
}

func (r *Report) tally(res *CheckResult) {
	switch {
	case res.Fixed:
		r.Fixed++
		r.Passed++ // a fixed check passed its re-run
	case res.Status == StatusOK:
		r.Passed++
	case res.Status == StatusWarning:
		r.Warned++
	default:
		r.Failed++
	}
}

// Doctor runs registered health checks and reports results.
type Doctor struct {
	checks []Check
}

// Register adds a check to the doctor's check list.
func (d *Doctor) Register(c Check) {
	d.checks = append(d.checks, c)
}

// Run executes every registered check in order, streaming one result
// line per check to w. With fix set, a non-OK check that supports
// remediation is fixed and re-run; it only counts as fixed if the
// re-run comes back clean.
func (d *Doctor) Run(ctx *CheckContext, w io.Writer, fix bool) *Report {
	report := &Report{}
	for _, c := range d.checks {
		res := c.Run(ctx)

		if fix && res.Status != StatusOK && c.CanFix() {
			if err := c.Fix(ctx); err == nil {
				if rerun := c.Run(ctx); rerun.Status == StatusOK {
					rerun.Fixed = true
					res = rerun
				}
			}
		}

		res.print(w, ctx.Verbose)
		report.tally(res)
	}
	return report
}

func (r *CheckResult) mark() string {
	switch {
	case r.Fixed, r.Status == StatusOK:
		return "✓"
	case r.Status == StatusWarning:
		return "⚠"
	default:
		return "✗"
	}
}

// print writes the result line, details in verbose mode, and the fix
// hint when the problem is not going to resolve itself.
func (r *CheckResult) print(w io.Writer, verbose bool) {
	suffix := ""
	if r.Fixed {
		suffix = " (fixed)"
	}
	fmt.Fprintf(w, "  %s %s — %s%s\n", r.mark(), r.Name, r.Message, suffix) //nolint:errcheck // best-effort output
	if verbose {
		for _, d := range r.Details {
			fmt.Fprintf(w, "      %s\n", d) //nolint:errcheck // best-effort output
		}
	}
	if r.FixHint != "" && r.Status != StatusOK && !r.Fixed {
		fmt.Fprintf(w, "      hint: %s\n", r.FixHint) //nolint:errcheck // best-effort output
	}
}

// PrintSummary writes the final tally line to w.
func PrintSummary(w io.Writer, r *Report) {
	var parts []string
	for _, p := range []struct {
		n    int
		unit string
	}{
		{r.Passed, "passed"},
		{r.Warned, "warnings"},
		{r.Failed, "failed"},
		{r.Fixed, "fixed"},
	} {
		if p.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", p.n, p.unit))
		}
	}
	if len(parts) == 0 {
		fmt.Fprintln(w, "\nNo checks ran.") //nolint:errcheck // best-effort output
		return
	}
	fmt.Fprintf(w, "\n%s\n", strings.Join(parts, ", ")) //nolint:errcheck // best-effort output
}
