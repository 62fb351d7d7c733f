package legend

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// OpKind tags the three kinds of patch entry.
type OpKind string

const (
	OpOverride     OpKind = "override"
	OpAlias        OpKind = "alias"
	OpNightVariant OpKind = "night_variant"
)

// Target identifies an existing record by legend code, legacy id or both.
// When both are set they must name the same record.
type Target struct {
	LegendCode string `json:"legend_code,omitempty" yaml:"legend_code,omitempty"`
	OldID      int    `json:"old_id,omitempty" yaml:"old_id,omitempty"`
}

func (t Target) String() string {
	var parts []string
	if t.LegendCode != "" {
		parts = append(parts, "legend_code="+t.LegendCode)
	}
	if t.OldID != 0 {
		parts = append(parts, "old_id="+strconv.Itoa(t.OldID))
	}
	if len(parts) == 0 {
		return "<empty target>"
	}
	return strings.Join(parts, ",")
}

// Operation is one declarative patch entry: Override, Alias or NightVariant.
type Operation interface {
	Kind() OpKind
}

// Alias adds SymbolID as an alternate symbol id of Target.
type Alias struct {
	SymbolID string
	Target   Target
}

// NightVariant derives a night record keyed at Day's legacy id + NightOffset.
type NightVariant struct {
	SymbolID string
	Day      Target
}

// Override replaces fields on Target. Nil fields are left unchanged;
// Descriptions are merged key by key.
type Override struct {
	Target Target
	Set    Fields
}

// Fields holds the replaceable fields of an Override.
type Fields struct {
	LegendCode   *string           `json:"legend_code,omitempty" yaml:"legend_code,omitempty"`
	SymbolID     *string           `json:"symbol_id,omitempty" yaml:"symbol_id,omitempty"`
	Variants     *[]string         `json:"variants,omitempty" yaml:"variants,omitempty"`
	Descriptions map[string]string `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
}

func (Alias) Kind() OpKind        { return OpAlias }
func (NightVariant) Kind() OpKind { return OpNightVariant }
func (Override) Kind() OpKind     { return OpOverride }

// Patch is a provider's overlay on the base legend.
type Patch struct {
	Provider   string
	Operations []Operation
}

// phases is the fixed application order. Night variants come last so they are
// derived from the day record's final state.
var phases = []OpKind{OpOverride, OpAlias, OpNightVariant}

// Apply produces a new store for patch.Provider from base. base is never
// modified. Any error aborts the whole patch and no store is returned.
func Apply(base *Store, patch Patch) (*Store, error) {
	if strings.TrimSpace(patch.Provider) == "" {
		return nil, fmt.Errorf("%w: patch has no provider", ErrMalformedDataset)
	}
	a := &applier{provider: patch.Provider}
	ops := make([]Operation, len(patch.Operations))
	for i, op := range patch.Operations {
		entry, ok := entryOf(op)
		if !ok {
			return nil, fmt.Errorf("%w: %s entry %d: unsupported entry %T", ErrMalformedDataset, patch.Provider, i+1, op)
		}
		ops[i] = entry
	}

	a.b = builderFrom(base, patch.Provider)
	for _, phase := range phases {
		for i, op := range ops {
			if op.Kind() != phase {
				continue
			}
			var err error
			switch op := op.(type) {
			case Override:
				err = a.override(i, op)
			case Alias:
				err = a.alias(i, op)
			case NightVariant:
				err = a.night(i, op)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return a.b.build(), nil
}

// entryOf returns op as one of the three value entry types. Pointer entries
// are dereferenced; nil and foreign Operation implementations are rejected.
func entryOf(op Operation) (Operation, bool) {
	switch op := op.(type) {
	case Override, Alias, NightVariant:
		return op, true
	case *Override:
		if op != nil {
			return *op, true
		}
	case *Alias:
		if op != nil {
			return *op, true
		}
	case *NightVariant:
		if op != nil {
			return *op, true
		}
	}
	return nil, false
}

type applier struct {
	provider string
	b        *builder
}

func (a *applier) errorf(sentinel error, i int, kind OpKind, format string, args ...any) error {
	return fmt.Errorf("%w: %s entry %d (%s): %s", sentinel, a.provider, i+1, kind, fmt.Sprintf(format, args...))
}

// find resolves t to a record index.
func (a *applier) find(i int, kind OpKind, t Target) (int, error) {
	codeKey := Key(t.LegendCode)
	if codeKey == "" && t.OldID == 0 {
		return 0, a.errorf(ErrMalformedDataset, i, kind, "target needs legend_code or old_id")
	}
	idx := -1
	if codeKey != "" {
		ci, ok := a.b.byCode[codeKey]
		if !ok {
			return 0, a.errorf(ErrUnknownTarget, i, kind, "no record with legend_code %q", t.LegendCode)
		}
		idx = ci
	}
	if t.OldID != 0 {
		oi, ok := a.b.byOldID[t.OldID]
		if !ok {
			return 0, a.errorf(ErrUnknownTarget, i, kind, "no record with old_id %d", t.OldID)
		}
		if idx >= 0 && idx != oi {
			return 0, a.errorf(ErrUnknownTarget, i, kind, "no single record matches %s", t)
		}
		idx = oi
	}
	return idx, nil
}

func (a *applier) override(i int, op Override) error {
	idx, err := a.find(i, OpOverride, op.Target)
	if err != nil {
		return err
	}
	b := a.b
	r := b.records[idx]

	if op.Set.LegendCode != nil {
		k := Key(*op.Set.LegendCode)
		if k == "" {
			return a.errorf(ErrMalformedDataset, i, OpOverride, "legend_code cannot be cleared")
		}
		if other, taken := b.byCode[k]; taken && other != idx {
			return a.errorf(ErrCollision, i, OpOverride, "legend_code %q already used by %s", *op.Set.LegendCode, b.records[other].Ref())
		}
		if old := Key(r.LegendCode); old != "" && b.byCode[old] == idx {
			delete(b.byCode, old)
		}
		r.LegendCode = strings.TrimSpace(*op.Set.LegendCode)
		b.byCode[k] = idx
	}

	if op.Set.SymbolID != nil {
		k := Key(*op.Set.SymbolID)
		if k == "" {
			return a.errorf(ErrMalformedDataset, i, OpOverride, "symbol_id cannot be cleared")
		}
		if other, taken := b.bySymbol[k]; taken && other != idx {
			return a.errorf(ErrCollision, i, OpOverride, "symbol_id %q already used by %s", *op.Set.SymbolID, b.records[other].Ref())
		}
		if other, taken := b.byAlias[k]; taken {
			return a.errorf(ErrCollision, i, OpOverride, "symbol_id %q already an alias of %s", *op.Set.SymbolID, b.records[other].Ref())
		}
		if old := Key(r.SymbolID); old != "" && b.bySymbol[old] == idx {
			delete(b.bySymbol, old)
		}
		r.SymbolID = strings.TrimSpace(*op.Set.SymbolID)
		b.bySymbol[k] = idx
	}

	if op.Set.Variants != nil {
		r.Variants = slices.Clone(*op.Set.Variants)
	}
	if len(op.Set.Descriptions) > 0 {
		if r.Descriptions == nil {
			r.Descriptions = make(map[string]string, len(op.Set.Descriptions))
		}
		maps.Copy(r.Descriptions, op.Set.Descriptions)
	}

	b.records[idx] = r
	return nil
}

func (a *applier) alias(i int, op Alias) error {
	k := Key(op.SymbolID)
	if k == "" {
		return a.errorf(ErrMalformedDataset, i, OpAlias, "alias needs a symbol_id")
	}
	idx, err := a.find(i, OpAlias, op.Target)
	if err != nil {
		return err
	}
	b := a.b
	if other, taken := b.bySymbol[k]; taken {
		return a.errorf(ErrCollision, i, OpAlias, "symbol_id %q already used by %s", op.SymbolID, b.records[other].Ref())
	}
	if other, taken := b.byAlias[k]; taken {
		return a.errorf(ErrCollision, i, OpAlias, "symbol_id %q already an alias of %s", op.SymbolID, b.records[other].Ref())
	}
	b.records[idx].Aliases = append(b.records[idx].Aliases, strings.TrimSpace(op.SymbolID))
	b.byAlias[k] = idx
	return nil
}

func (a *applier) night(i int, op NightVariant) error {
	k := Key(op.SymbolID)
	if k == "" {
		return a.errorf(ErrMalformedDataset, i, OpNightVariant, "night variant needs a symbol_id")
	}
	idx, err := a.find(i, OpNightVariant, op.Day)
	if err != nil {
		return err
	}
	b := a.b
	day := b.records[idx]
	if day.NightVariant {
		return a.errorf(ErrUnknownTarget, i, OpNightVariant, "%s is itself a night variant", day.Ref())
	}
	if day.OldID == 0 {
		return a.errorf(ErrUnknownTarget, i, OpNightVariant, "%s has no old_id to derive from", day.Ref())
	}

	nightID := day.OldID + NightOffset
	if other, taken := b.byOldID[nightID]; taken {
		return a.errorf(ErrCollision, i, OpNightVariant, "old_id %d already used by %s", nightID, b.records[other].Ref())
	}
	if b.symbolInUse(k) {
		return a.errorf(ErrCollision, i, OpNightVariant, "symbol_id %q already in use", op.SymbolID)
	}
	code := nightCode(day)
	if ck := Key(code); ck != "" {
		if other, taken := b.byCode[ck]; taken {
			return a.errorf(ErrCollision, i, OpNightVariant, "legend_code %q already used by %s", code, b.records[other].Ref())
		}
	}

	b.add(Record{
		LegendCode:   code,
		OldID:        nightID,
		SymbolID:     strings.TrimSpace(op.SymbolID),
		NightVariant: true,
		DayOldID:     day.OldID,
		Descriptions: maps.Clone(day.Descriptions),
	})
	return nil
}

// nightCode is the day record's legend code with its "_day" suffix swapped
// for "_night", or "" when the day record has no night icon.
func nightCode(day Record) string {
	if !day.HasVariant(VariantNight) {
		return ""
	}
	base, ok := strings.CutSuffix(day.LegendCode, "_"+VariantDay)
	if !ok {
		return ""
	}
	return base + "_" + VariantNight
}
