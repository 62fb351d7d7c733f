package audit

import (
	"time"

	"github.com/i474232898/weather-legend/internal/legend"
)

// BaseProvider is the report key for checks of the unpatched base legend.
const BaseProvider = "base"

// Report is the outcome of verifying one provider's store at a point in time.
type Report struct {
	ID        string           `json:"id"`
	Provider  string           `json:"provider"`
	CheckedAt time.Time        `json:"checked_at"` // always UTC
	Records   int              `json:"records"`
	Findings  []legend.Finding `json:"findings"`

	// Reference is the reference legend the base store was compared with, if any.
	Reference string `json:"reference,omitempty"`
}

// OK reports whether the check found nothing.
func (r Report) OK() bool { return len(r.Findings) == 0 }

// Counts returns the number of findings per kind.
func (r Report) Counts() map[legend.FindingKind]int {
	counts := make(map[legend.FindingKind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}
