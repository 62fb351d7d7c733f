package legend

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// NightOffset is added to a day record's legacy id to key its night variant.
const NightOffset = 100

// Variant names used by the latest icon set.
const (
	VariantDay           = "day"
	VariantNight         = "night"
	VariantPolarTwilight = "polartwilight"
)

// Record is one weather condition and every identifier it is known by.
// OldID and DayOldID use 0 for "absent"; legacy ids start at 1.
type Record struct {
	LegendCode   string            `json:"legend_code,omitempty"`
	OldID        int               `json:"old_id,omitempty"`
	SymbolID     string            `json:"symbol_id,omitempty"`
	Aliases      []string          `json:"aliases,omitempty"`
	NightVariant bool              `json:"is_night_variant"`
	DayOldID     int               `json:"day_counterpart_old_id,omitempty"`
	Variants     []string          `json:"variants,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty"`
}

// HasVariant reports whether the record lists the named icon variant.
func (r Record) HasVariant(name string) bool {
	return slices.Contains(r.Variants, name)
}

// VariantCodes are the alternate legend codes a day record answers to, one
// per listed variant other than day: "clearsky_day" with a night variant also
// answers to "clearsky_night". Night variants, and records whose code has no
// "_day" suffix, have none.
func (r Record) VariantCodes() []string {
	if r.NightVariant {
		return nil
	}
	stem, ok := strings.CutSuffix(r.LegendCode, "_"+VariantDay)
	if !ok || stem == "" {
		return nil
	}
	var codes []string
	for _, v := range r.Variants {
		if v == VariantDay || strings.TrimSpace(v) == "" {
			continue
		}
		codes = append(codes, stem+"_"+v)
	}
	return codes
}

// variantFor names the variant whose alternate code is code, or "" when code
// is not one of r's alternate codes.
func (r Record) variantFor(code string) string {
	k := Key(code)
	for _, v := range r.Variants {
		if v == VariantDay || strings.TrimSpace(v) == "" {
			continue
		}
		if stem, ok := strings.CutSuffix(r.LegendCode, "_"+VariantDay); ok && !r.NightVariant && Key(stem+"_"+v) == k {
			return v
		}
	}
	return ""
}

// Ref is a short human readable reference used in errors and findings.
func (r Record) Ref() string {
	switch {
	case r.LegendCode != "" && r.OldID != 0:
		return fmt.Sprintf("%s#%d", r.LegendCode, r.OldID)
	case r.LegendCode != "":
		return r.LegendCode
	case r.OldID != 0:
		return "#" + strconv.Itoa(r.OldID)
	default:
		return "symbol:" + r.SymbolID
	}
}

func (r Record) clone() Record {
	r.Aliases = slices.Clone(r.Aliases)
	r.Variants = slices.Clone(r.Variants)
	r.Descriptions = maps.Clone(r.Descriptions)
	return r
}

// Row is one entry of a base legend dataset as parsed from file.
type Row struct {
	LegendCode   string            `json:"legend_code,omitempty" yaml:"legend_code,omitempty"`
	OldID        int               `json:"old_id,omitempty" yaml:"old_id,omitempty"`
	SymbolID     string            `json:"symbol_id,omitempty" yaml:"symbol_id,omitempty"`
	Variants     []string          `json:"variants,omitempty" yaml:"variants,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
}

func (row Row) record() Record {
	return Record{
		LegendCode:   row.LegendCode,
		OldID:        row.OldID,
		SymbolID:     row.SymbolID,
		Variants:     slices.Clone(row.Variants),
		Descriptions: maps.Clone(row.Descriptions),
	}
}
