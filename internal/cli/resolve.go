package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-legend/internal/legend"
)

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	var provider, kind string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a provider symbol to its legend record",
		Long: `Resolve looks an identifier up in the store of the given provider.
Providers without a patch resolve against the base legend.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, provider, kind, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider id")
	cmd.Flags().StringVarP(&kind, "kind", "k", string(legend.KindSymbolID), "identifier kind (legend_code|old_id|symbol_id)")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

func runResolve(opts *RootOptions, provider, kind, id string, w io.Writer) error {
	out := &OutputFormatter{Format: opts.Format, Writer: w}

	k, err := legend.ParseKind(kind)
	if err != nil {
		return out.Fail(WrapExitError(ExitCommandError, "invalid --kind", err))
	}
	reg, err := loadRegistry(opts)
	if err != nil {
		return out.Fail(err)
	}

	d, err := legend.NewResolver(reg).Resolve(provider, id, k)
	if err != nil {
		if errors.Is(err, legend.ErrUnresolved) {
			return out.Fail(WrapExitError(ExitFailure, "unresolved", err))
		}
		return out.Fail(err)
	}

	res := d.WithIcons()

	if out.IsJSON() {
		return out.JSON("ok", res)
	}
	writeResolveText(w, res)
	return nil
}

func writeResolveText(w io.Writer, r legend.Resolution) {
	line := func(k, v string) {
		if v != "" {
			fmt.Fprintf(w, "%-18s %s\n", k+":", v)
		}
	}
	itoa := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	line("provider", r.Provider)
	line("legend_code", r.LegendCode)
	line("old_id", itoa(r.OldID))
	line("symbol_id", r.SymbolID)
	line("variant", r.Variant)
	line("night_variant", strconv.FormatBool(r.NightVariant))
	line("day_old_id", itoa(r.DayOldID))
	line("icon_path", r.Icon)
	line("legacy_icon_path", r.LegacyIcon)
}
