package legend

import (
	"fmt"
	"path"
	"strings"
)

// Icon path layout for the two icon generations.
const (
	IconDir       = "weather_icons"
	LegacyIconDir = "img/weather_icons"
	IconExt       = ".svg"
)

// Suffixes appended to a legacy two-digit icon number.
const (
	legacyNone  = ""
	legacyDay   = "d"
	legacyNight = "n"
)

// Resolution is a descriptor together with its icon paths, as returned to
// API and CLI callers.
type Resolution struct {
	Descriptor
	Icon       string `json:"icon_path,omitempty"`
	LegacyIcon string `json:"legacy_icon_path,omitempty"`
}

// WithIcons fills in both icon paths for d. A path that cannot be built is
// left empty.
func (d Descriptor) WithIcons() Resolution {
	res := Resolution{Descriptor: d}
	res.Icon, _ = d.IconPath()
	res.LegacyIcon, _ = d.LegacyIconPath()
	return res
}

// IconPath is the latest-generation icon for the descriptor, keyed by legend
// code, or by the matched variant's code when Variant is set.
func (d Descriptor) IconPath() (string, bool) {
	if d.LegendCode == "" {
		return "", false
	}
	code := d.LegendCode
	if d.Variant != "" {
		if stem, ok := strings.CutSuffix(code, "_"+VariantDay); ok {
			code = stem + "_" + d.Variant
		}
	}
	return path.Join(IconDir, code+IconExt), true
}

// LegacyIconPath is the previous-generation icon, keyed by the day legacy id
// plus a "d"/"n" suffix for conditions that have day and night renderings.
func (d Descriptor) LegacyIconPath() (string, bool) {
	id, suffix := d.OldID, legacyNone
	switch {
	case d.NightVariant:
		id, suffix = d.DayOldID, legacyNight
		if id == 0 {
			id = d.OldID - NightOffset
		}
	case d.HasVariants:
		suffix = legacyDay
	}
	if id <= 0 {
		return "", false
	}
	return path.Join(LegacyIconDir, fmt.Sprintf("%02d%s%s", id, suffix, IconExt)), true
}
