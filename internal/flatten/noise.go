package flatten

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Value-level bounds. Values shorter than MinValueChars carry too little
// meaning to embed; values longer than MaxValueChars are truncated to bound
// memory and embedding cost per chunk.
const (
	MinValueChars = 4
	MaxValueChars = 600

	// MaxListItems caps list recursion per section. Excess elements are
	// silently dropped to bound pathological payloads.
	MaxListItems = 50
)

// denyExact lists key-paths that never contribute text.
var denyExact = map[string]struct{}{
	"misc.created_at":                     {},
	"misc.updated_at":                     {},
	"design_and_layout.id":                {},
	"design_and_layout.code":              {},
	"design_and_layout.uuid":              {},
	"physical_features.id":                {},
	"physical_features.code":              {},
	"legal_and_product_status.id":         {},
	"legal_and_product_status.code":       {},
	"equipment_and_handover_materials.id": {},
}

// allowPrefixes holds per-section allowlists. A section with a non-empty list
// keeps only key-paths starting with one of its prefixes; an empty list allows
// everything except the denylist.
var allowPrefixes = map[string][]string{
	"design_and_layout": {
		"design_and_layout.location",
		"design_and_layout.type",
		"design_and_layout.property_type",
		"design_and_layout.bedrooms",
		"design_and_layout.bathrooms",
		"design_and_layout.area",
		"design_and_layout.price",
		"design_and_layout.floor",
	},
	"living_experience": {},
	"physical_features": {},
	"legal_and_product_status": {
		"legal_and_product_status.status",
		"legal_and_product_status.red_book",
		"legal_and_product_status.ownership",
	},
}

var (
	reKeyNoiseSuffix = regexp.MustCompile(`(?i)(?:^|\.)(?:id|uuid|code|created_at|updated_at)(?:\[.*\])?$`)
	reUUIDLike       = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	reURL            = regexp.MustCompile(`https?://\S+`)
	reCodey          = regexp.MustCompile(`[{}[\];<>]{3,}`)
)

// IsNoiseKey reports whether a key-path should be excluded. The denylist and
// the id/uuid/code/timestamp suffix rule take precedence over any section
// allowlist.
func IsNoiseKey(path, section string) bool {
	if _, ok := denyExact[path]; ok {
		return true
	}
	if reKeyNoiseSuffix.MatchString(path) {
		return true
	}

	if section != "" {
		if allowed, ok := allowPrefixes[section]; ok && len(allowed) > 0 {
			for _, p := range allowed {
				// Keep allowed subtrees and every ancestor on the way down,
				// otherwise the walk would never reach the allowed leaves.
				if pathWithin(path, p) || pathWithin(p, path) {
					return false
				}
			}
			return true
		}
	}

	return false
}

// pathWithin reports whether child equals parent or sits inside parent's
// subtree at a path boundary, so "a.loc" does not count as within "a.location".
func pathWithin(child, parent string) bool {
	return child == parent ||
		strings.HasPrefix(child, parent+".") ||
		strings.HasPrefix(child, parent+"[")
}

// IsNoiseValue reports whether a trimmed value is junk: too short, entirely
// digits/punctuation, UUID-like, a URL, or a leaked serialized fragment.
func IsNoiseValue(text string) bool {
	if utf8.RuneCountInString(text) < MinValueChars {
		return true
	}
	if !containsLetter(text) {
		return true
	}
	if reUUIDLike.MatchString(text) {
		return true
	}
	if reURL.MatchString(text) {
		return true
	}
	if reCodey.MatchString(text) {
		return true
	}
	return false
}

// containsLetter reports whether text has at least one letter in any script.
// Values without letters carry no prose to embed; digits, punctuation, and
// separators alone are treated as identifiers or formatting residue.
func containsLetter(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// TruncateValue bounds a surviving value to MaxValueChars characters,
// appending an ellipsis marker when cut. Counts runes, not bytes, so
// multibyte text is never split mid-character.
func TruncateValue(text string) string {
	if utf8.RuneCountInString(text) <= MaxValueChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxValueChars]) + "…"
}
