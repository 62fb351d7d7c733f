package cli

import (
	"cmp"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-legend/internal/legend"
	"github.com/i474232898/weather-legend/internal/reference"
)

// DriftResult is the outcome of comparing the base legend with a reference.
type DriftResult struct {
	Reference string           `json:"reference"`
	Findings  []legend.Finding `json:"findings"`
}

// NewDriftCommand creates the drift command.
func NewDriftCommand(rootOpts *RootOptions) *cobra.Command {
	var ref string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the base legend with a reference legend",
		Long: `Drift compares the base legend with a reference legend, such as the
upstream met.no legends.json or legend.csv, given as a local path or an
http(s) URL. Exits with status 1 when the two differ.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrift(rootOpts, ref, timeout, cmd)
		},
	}

	cmd.Flags().StringVarP(&ref, "reference", "r", "", "reference legend path or URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP timeout for a reference URL")
	_ = cmd.MarkFlagRequired("reference")

	return cmd
}

func runDrift(opts *RootOptions, ref string, timeout time.Duration, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	reg, err := loadRegistry(opts)
	if err != nil {
		return out.Fail(err)
	}

	fetcher := reference.NewFetcher(&http.Client{Timeout: timeout}, 0)
	rows, err := fetcher.Load(cmd.Context(), ref)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "load reference legend", err))
	}

	res := DriftResult{Reference: ref, Findings: sortedFindings(legend.Drift(reg.Base(), rows))}
	status := "ok"
	if len(res.Findings) > 0 {
		status = "findings"
	}

	if out.IsJSON() {
		if err := out.JSON(status, res); err != nil {
			return err
		}
	} else {
		writeDriftText(w, res)
	}

	if len(res.Findings) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d difference(s) from reference", len(res.Findings)))
	}
	return nil
}

func writeDriftText(w io.Writer, res DriftResult) {
	if len(res.Findings) == 0 {
		fmt.Fprintf(w, "✓ base legend matches %s\n", res.Reference)
		return
	}
	fmt.Fprintf(w, "✗ base legend differs from %s in %d place(s)\n", res.Reference, len(res.Findings))
	for _, f := range res.Findings {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

// sortedFindings orders findings by kind, keeping legend order within a kind.
func sortedFindings(findings []legend.Finding) []legend.Finding {
	out := slices.Clone(findings)
	slices.SortStableFunc(out, func(a, b legend.Finding) int {
		return cmp.Compare(a.Kind, b.Kind)
	})
	return out
}
