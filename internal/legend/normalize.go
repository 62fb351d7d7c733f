package legend

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key normalises a string identifier for index lookups: surrounding space is
// trimmed, the result is NFC normalised and case folded. "Sun", "SUN" and
// " sun " share a key.
func Key(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	// Casers keep state, so one is created per call.
	return cases.Fold().String(norm.NFC.String(id))
}
