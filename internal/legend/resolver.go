package legend

import (
	"fmt"
	"strconv"
)

// Kind names an identifier scheme.
type Kind string

const (
	KindLegendCode Kind = "legend_code"
	KindOldID      Kind = "old_id"
	KindSymbolID   Kind = "symbol_id"
)

// Kinds lists every identifier scheme.
var Kinds = []Kind{KindLegendCode, KindOldID, KindSymbolID}

// ParseKind validates an identifier kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown identifier kind %q", s)
}

// Descriptor is what callers get back from a resolution: enough to build
// either the latest icon path or the legacy numeric one. Variant is set when a
// legend code lookup matched one of a day record's alternate codes, e.g.
// "night" for "clearsky_night".
type Descriptor struct {
	Provider     string `json:"provider"`
	LegendCode   string `json:"legend_code,omitempty"`
	OldID        int    `json:"old_id,omitempty"`
	SymbolID     string `json:"symbol_id,omitempty"`
	NightVariant bool   `json:"is_night_variant"`
	DayOldID     int    `json:"day_counterpart_old_id,omitempty"`
	HasVariants  bool   `json:"has_variants"`
	Variant      string `json:"variant,omitempty"`
}

func describe(provider string, r Record) Descriptor {
	return Descriptor{
		Provider:     provider,
		LegendCode:   r.LegendCode,
		OldID:        r.OldID,
		SymbolID:     r.SymbolID,
		NightVariant: r.NightVariant,
		DayOldID:     r.DayOldID,
		HasVariants:  len(r.Variants) > 0,
	}
}

// Resolver is the lookup facade used by callers. It holds no state of its own
// beyond the registry it reads from.
type Resolver struct {
	registry *Registry
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{registry: reg}
}

// Resolve looks identifier up in the store for provider. Providers without a
// patch resolve against the base store. A miss returns ErrUnresolved; the
// resolver never substitutes a fallback record.
func (r *Resolver) Resolve(provider, identifier string, kind Kind) (Descriptor, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Descriptor{}, err
	}
	s := r.registry.Store(provider)
	rec, ok := s.Lookup(kind, identifier)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: provider %q has no %s %q", ErrUnresolved, provider, kind, identifier)
	}
	d := describe(provider, rec)
	if kind == KindLegendCode {
		d.Variant = rec.variantFor(identifier)
	}
	return d, nil
}

// ResolveOldID is Resolve for a numeric legacy id.
func (r *Resolver) ResolveOldID(provider string, id int) (Descriptor, error) {
	return r.Resolve(provider, strconv.Itoa(id), KindOldID)
}
