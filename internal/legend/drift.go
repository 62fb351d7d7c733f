package legend

import (
	"fmt"
	"maps"
	"slices"
)

// Drift compares the base store against a reference legend, matching entries
// by symbol id, and reports what differs. Night variants are ignored since a
// reference legend carries no patch-derived records.
func Drift(base *Store, reference []Row) []Finding {
	var findings []Finding
	seen := make(map[string]bool, len(reference))

	for _, ref := range reference {
		k := Key(ref.SymbolID)
		if k == "" {
			continue
		}
		seen[k] = true
		refRec := ref.record()

		i, ok := base.bySymbol[k]
		if !ok {
			findings = append(findings, Finding{
				Kind:      FindingDriftMissing,
				RecordRef: refRec.Ref(),
				Detail:    fmt.Sprintf("reference symbol %q not in base legend", ref.SymbolID),
			})
			continue
		}
		got := base.records[i]
		if got.OldID != ref.OldID {
			findings = append(findings, Finding{
				Kind:      FindingDriftOldID,
				RecordRef: got.Ref(),
				Detail:    fmt.Sprintf("old_id %d differs from reference %d", got.OldID, ref.OldID),
			})
		}
		if (len(got.Variants) > 0) != (len(ref.Variants) > 0) {
			findings = append(findings, Finding{
				Kind:      FindingDriftVariants,
				RecordRef: got.Ref(),
				Detail:    fmt.Sprintf("has variants %t, reference %t", len(got.Variants) > 0, len(ref.Variants) > 0),
			})
		}
		for _, lang := range slices.Sorted(maps.Keys(ref.Descriptions)) {
			want := ref.Descriptions[lang]
			if have := got.Descriptions[lang]; have != want {
				findings = append(findings, Finding{
					Kind:      FindingDriftDesc,
					RecordRef: got.Ref(),
					Detail:    fmt.Sprintf("%s %q differs from reference %q", lang, have, want),
				})
			}
		}
	}

	for _, r := range base.records {
		if r.NightVariant {
			continue
		}
		if k := Key(r.SymbolID); k != "" && !seen[k] {
			findings = append(findings, Finding{
				Kind:      FindingDriftExtra,
				RecordRef: r.Ref(),
				Detail:    fmt.Sprintf("symbol %q not in reference legend", r.SymbolID),
			})
		}
	}
	return findings
}
