package cli

import (
	"fmt"
	"log/slog"

	"github.com/i474232898/weather-legend/internal/config"
	"github.com/i474232898/weather-legend/internal/dataset"
	"github.com/i474232898/weather-legend/internal/legend"
)

// loadRegistry builds a registry from the --base and --patch flags.
func loadRegistry(opts *RootOptions) (*legend.Registry, error) {
	rows, err := dataset.LoadBase(opts.Base)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load base legend", err)
	}
	base, err := legend.Load(rows)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load base legend", err)
	}
	slog.Debug("loaded base legend", "path", opts.Base, "records", base.Len())

	reg := legend.NewRegistry(base)
	for _, pair := range opts.Patches {
		src, err := config.ParsePatch(pair)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --patch", err)
		}
		patch, err := dataset.LoadPatch(src.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("load patch for %s", src.Provider), err)
		}
		// The flag names the provider; the file's own provider id is ignored.
		patch.Provider = src.Provider
		if err := reg.Register(patch); err != nil {
			return nil, WrapExitError(ExitCommandError, "apply patch", err)
		}
		slog.Debug("registered provider", "provider", src.Provider, "path", src.Path)
	}
	return reg, nil
}

// loadManifest reads --manifest, returning nil when it is unset.
func loadManifest(opts *RootOptions) (legend.AssetManifest, error) {
	if opts.Manifest == "" {
		return nil, nil
	}
	m, err := dataset.LoadManifest(opts.Manifest)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load icon manifest", err)
	}
	return m, nil
}
