package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-legend/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string   // "json" | "text"
	Base     string   // base legend file
	Patches  []string // provider=path pairs
	Manifest string   // icon manifest file or directory; empty skips asset checks
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for legendctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "legendctl",
		Short: "Inspect and verify weather symbol legends",
		Long: `legendctl loads a base weather legend plus provider patch files and
resolves, verifies or compares them offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg := logger.DefaultConfig()
			cfg.ServiceName = "legendctl"
			if opts.Verbose {
				cfg.Level = "debug"
			} else {
				cfg.Level = "warn"
			}
			logger.InitWithWriter(cfg, cmd.ErrOrStderr())
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Base, "base", "data/legends/legends.json", "base legend (json, csv or yaml)")
	cmd.PersistentFlags().StringArrayVar(&opts.Patches, "patch", nil, "provider patch as provider=path (repeatable)")
	cmd.PersistentFlags().StringVar(&opts.Manifest, "manifest", "", "icon manifest file or icon directory")

	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewDriftCommand(opts))

	return cmd
}
