package preflight

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mkimg/internal/config"
	"mkimg/internal/services"
)

// Format renders the full checklist in operator-readable form.
func Format(results []Result) string {
	var sb strings.Builder
	sb.WriteString("PRE-FLIGHT CHECKLIST:\n")
	for _, r := range results {
		verdict := "NO"
		if r.Passed {
			verdict = "YES"
		}
		fmt.Fprintf(&sb, "          %s: %s (%s)\n", r.Name, verdict, r.Detail)
	}
	return sb.String()
}

// Enforce runs all checks, prints every line regardless of outcome, and
// fails with ErrPreflightFailed naming the failed checks. It has no side
// effects beyond the diagnostics written to w.
func Enforce(ctx context.Context, cfg *config.Config, prober FilesystemProber, w io.Writer) error {
	results := RunAll(ctx, cfg, prober)
	fmt.Fprint(w, Format(results))

	if AllPassed(results) {
		return nil
	}
	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name)
		}
	}
	return services.Wrap(services.ErrPreflightFailed, "preflight", "enforce", strings.Join(failed, ", "), nil)
}
