package legend

import (
	"fmt"
	"slices"
)

// FindingKind classifies a verification finding.
type FindingKind string

const (
	FindingAmbiguousSymbol FindingKind = "ambiguous_symbol"
	FindingDuplicateOldID  FindingKind = "duplicate_old_id"
	FindingDuplicateCode   FindingKind = "duplicate_legend_code"
	FindingMissingKey      FindingKind = "missing_key"
	FindingNightOffset     FindingKind = "night_offset"
	FindingNightIDReused   FindingKind = "night_id_reused"
	FindingMissingDay      FindingKind = "missing_day_counterpart"
	FindingMissingAsset    FindingKind = "missing_asset"
	FindingDriftMissing    FindingKind = "drift_missing"
	FindingDriftExtra      FindingKind = "drift_extra"
	FindingDriftOldID      FindingKind = "drift_old_id"
	FindingDriftVariants   FindingKind = "drift_variants"
	FindingDriftDesc       FindingKind = "drift_description"
)

// Finding is one discrete problem found by Verify or Drift.
type Finding struct {
	Kind      FindingKind `json:"kind"`
	RecordRef string      `json:"record_ref"`
	Detail    string      `json:"detail"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s: %s", f.Kind, f.RecordRef, f.Detail)
}

// AssetManifest reports which icon assets exist, by legend code.
type AssetManifest interface {
	Has(name string) bool
}

// Verify checks a store and returns every problem found rather than stopping
// at the first. A nil manifest skips the asset check.
func Verify(s *Store, manifest AssetManifest) []Finding {
	return VerifyRecords(s.Records(), manifest)
}

// VerifyRows checks a raw dataset, such as an external reference legend,
// without building a store from it.
func VerifyRows(rows []Row, manifest AssetManifest) []Finding {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return VerifyRecords(records, manifest)
}

// VerifyRecords runs every check over records in order.
func VerifyRecords(records []Record, manifest AssetManifest) []Finding {
	var findings []Finding
	add := func(kind FindingKind, r Record, format string, args ...any) {
		findings = append(findings, Finding{Kind: kind, RecordRef: r.Ref(), Detail: fmt.Sprintf(format, args...)})
	}

	symbols := make(map[string]Record, len(records))
	codes := make(map[string]Record, len(records))
	oldIDs := make(map[int]Record, len(records))
	dayIDs := make(map[int]bool, len(records))

	for _, r := range records {
		if Key(r.LegendCode) == "" && r.OldID == 0 {
			add(FindingMissingKey, r, "record has neither legend_code nor old_id")
		}
		if !r.NightVariant && r.OldID != 0 {
			dayIDs[r.OldID] = true
		}

		ids := append([]string{r.SymbolID}, r.Aliases...)
		for _, id := range ids {
			k := Key(id)
			if k == "" {
				continue
			}
			if first, seen := symbols[k]; seen {
				add(FindingAmbiguousSymbol, r, "symbol %q also resolves to %s", id, first.Ref())
				continue
			}
			symbols[k] = r
		}

		if k := Key(r.LegendCode); k != "" {
			if first, seen := codes[k]; seen {
				add(FindingDuplicateCode, r, "legend_code %q also used by %s", r.LegendCode, first.Ref())
			} else {
				codes[k] = r
			}
		}
		if r.OldID != 0 {
			if first, seen := oldIDs[r.OldID]; seen {
				add(FindingDuplicateOldID, r, "old_id %d also used by %s", r.OldID, first.Ref())
			} else {
				oldIDs[r.OldID] = r
			}
		}
	}

	// A day record's variant code may only be owned by its own night variant.
	for _, r := range records {
		for _, code := range r.VariantCodes() {
			owner, owned := codes[Key(code)]
			if !owned || (owner.NightVariant && r.OldID != 0 && owner.DayOldID == r.OldID) {
				continue
			}
			add(FindingDuplicateCode, r, "variant code %q is also the legend_code of %s", code, owner.Ref())
		}
	}

	for _, r := range records {
		if !r.NightVariant {
			continue
		}
		if r.OldID != r.DayOldID+NightOffset {
			add(FindingNightOffset, r, "old_id %d is not day old_id %d + %d", r.OldID, r.DayOldID, NightOffset)
		}
		if !dayIDs[r.DayOldID] {
			add(FindingMissingDay, r, "no day record with old_id %d", r.DayOldID)
		}
		for _, other := range records {
			if !other.NightVariant && other.OldID == r.OldID {
				add(FindingNightIDReused, r, "old_id %d is also the own id of day record %s", r.OldID, other.Ref())
			}
		}
	}

	if manifest != nil {
		for _, r := range records {
			if r.LegendCode != "" && !manifest.Has(r.LegendCode) {
				add(FindingMissingAsset, r, "no icon asset named %q", r.LegendCode)
			}
			for _, code := range r.VariantCodes() {
				if _, owned := codes[Key(code)]; owned {
					continue
				}
				if !manifest.Has(code) {
					add(FindingMissingAsset, r, "no icon asset named %q", code)
				}
			}
		}
	}
	return findings
}

// FindingKinds returns the distinct kinds in findings, sorted.
func FindingKinds(findings []Finding) []FindingKind {
	var kinds []FindingKind
	for _, f := range findings {
		if !slices.Contains(kinds, f.Kind) {
			kinds = append(kinds, f.Kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}
