package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-legend/internal/audit"
	"github.com/i474232898/weather-legend/internal/legend"
)

// StoreResult is the verification outcome for one store.
type StoreResult struct {
	Provider string           `json:"provider"`
	Records  int              `json:"records"`
	Findings []legend.Finding `json:"findings"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [provider...]",
		Short: "Check the base legend and provider stores for integrity problems",
		Long: `Verify runs every integrity check over the base legend and each patched
provider store, or only the named ones. "base" names the unpatched legend.

Exits with status 1 when any finding is reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, args, cmd.OutOrStdout())
		},
	}
	return cmd
}

func runVerify(opts *RootOptions, providers []string, w io.Writer) error {
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	reg, err := loadRegistry(opts)
	if err != nil {
		return out.Fail(err)
	}
	manifest, err := loadManifest(opts)
	if err != nil {
		return out.Fail(err)
	}

	if len(providers) == 0 {
		providers = append([]string{audit.BaseProvider}, reg.Providers()...)
	}

	results := make([]StoreResult, 0, len(providers))
	total := 0
	for _, p := range providers {
		var s *legend.Store
		if p == audit.BaseProvider {
			s = reg.Base()
		} else {
			var ok bool
			if s, ok = reg.Lookup(p); !ok {
				return out.Fail(NewExitError(ExitCommandError, fmt.Sprintf("unknown provider %q; registered: %v", p, reg.Providers())))
			}
		}
		findings := legend.Verify(s, manifest)
		total += len(findings)
		results = append(results, StoreResult{Provider: p, Records: s.Len(), Findings: findings})
	}

	status := "ok"
	if total > 0 {
		status = "findings"
	}
	if out.IsJSON() {
		if err := out.JSON(status, results); err != nil {
			return err
		}
	} else {
		writeVerifyText(w, results)
	}

	if total > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d finding(s)", total))
	}
	return nil
}

func writeVerifyText(w io.Writer, results []StoreResult) {
	total := 0
	for _, r := range results {
		if len(r.Findings) == 0 {
			fmt.Fprintf(w, "✓ %s: %d records, no findings\n", r.Provider, r.Records)
			continue
		}
		total += len(r.Findings)
		fmt.Fprintf(w, "✗ %s: %d records, %d finding(s)\n", r.Provider, r.Records, len(r.Findings))
		for _, f := range r.Findings {
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}
	fmt.Fprintf(w, "\n%d finding(s) across %d store(s)\n", total, len(results))
}
