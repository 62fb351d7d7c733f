package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// PatchSource names the patch file applied for one provider.
type PatchSource struct {
	Provider string `validate:"required"`
	Path     string `validate:"required"`
}

type AppConfig struct {
	// Legend datasets.
	BasePath     string        `validate:"required"`
	Patches      []PatchSource `validate:"dive"`
	Providers    []string      `validate:"dive,required"`
	ManifestPath string

	// Drift check against an upstream legend; empty disables it.
	ReferenceURL string        `validate:"omitempty,url"`
	HTTPTimeout  time.Duration `validate:"gt=0"`

	// VerifyInterval controls how often every provider store is verified.
	VerifyInterval time.Duration `validate:"gte=1m"`

	// Report retention.
	ReportMaxHistory int           `validate:"gte=0"` // max number of reports per provider (0 = unlimited)
	ReportMaxAge     time.Duration `validate:"gte=0"` // max age of reports (0 = unlimited)
	ReportDBPath     string        // empty keeps reports in memory

	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.BasePath = getenvDefault("LEGEND_BASE_PATH", "data/legends/legends.json")
	cfg.ManifestPath = getenvDefault("ICON_MANIFEST_PATH", "data/legends/icons.txt")
	cfg.ReferenceURL = strings.TrimSpace(os.Getenv("REFERENCE_LEGEND_URL"))
	cfg.ReportDBPath = strings.TrimSpace(os.Getenv("REPORT_DB_PATH"))

	cfg.Patches, err = parsePatches(getenvDefault("LEGEND_PATCHES", "met_eireann=data/legends/me-legends.yaml"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEGEND_PATCHES: %w", err)
	}
	cfg.Providers = splitList(getenvDefault("LEGEND_PROVIDERS", "met_norway,met_norway_classic"))

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	// Verification interval: default hourly.
	if cfg.VerifyInterval, err = getenvDuration("VERIFY_INTERVAL", "60m"); err != nil {
		return nil, err
	}

	// Report retention: two days of hourly runs, kept for at most a week.
	if cfg.ReportMaxHistory, err = getenvInt("REPORT_MAX_HISTORY", 48); err != nil {
		return nil, err
	}
	if cfg.ReportMaxAge, err = getenvDuration("REPORT_MAX_AGE", "168h"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// parsePatches reads comma separated provider=path pairs.
func parsePatches(s string) ([]PatchSource, error) {
	var out []PatchSource
	seen := make(map[string]bool)
	for _, pair := range splitList(s) {
		provider, path, ok := strings.Cut(pair, "=")
		provider, path = strings.TrimSpace(provider), strings.TrimSpace(path)
		if !ok || provider == "" || path == "" {
			return nil, fmt.Errorf("%q is not provider=path", pair)
		}
		if seen[provider] {
			return nil, fmt.Errorf("provider %q listed twice", provider)
		}
		seen[provider] = true
		out = append(out, PatchSource{Provider: provider, Path: path})
	}
	return out, nil
}

// ParsePatch reads a single provider=path pair.
func ParsePatch(pair string) (PatchSource, error) {
	ps, err := parsePatches(pair)
	if err != nil {
		return PatchSource{}, err
	}
	if len(ps) != 1 {
		return PatchSource{}, fmt.Errorf("%q is not provider=path", pair)
	}
	return ps[0], nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
