package docbuild

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// Candidate key-paths per derived metadata field, tried in order. The first
// non-empty value wins.
var (
	locationPaths = []string{"design_and_layout.location", "physical_features.location"}
	typePaths     = []string{"design_and_layout.type", "design_and_layout.property_type"}
	bedroomsPaths = []string{"design_and_layout.bedrooms"}
	pricePaths    = []string{"design_and_layout.price"}
)

// firstNonEmpty resolves candidate key-paths against the record and returns
// the first value that is present and non-empty, rendered as text.
func firstNonEmpty(rec *domain.PropertyRecord, paths []string) string {
	root := map[string]any{
		domain.SectionDesign:    rec.DesignAndLayout,
		domain.SectionLiving:    rec.LivingExperience,
		domain.SectionPhysical:  rec.PhysicalFeatures,
		domain.SectionEquipment: rec.EquipmentAndHandoverMaterials,
		domain.SectionLegal:     rec.LegalAndProductStatus,
	}
	for _, p := range paths {
		if v := lookupPath(root, p); v != nil {
			s := strings.TrimSpace(valueText(v))
			if s != "" {
				return s
			}
		}
	}
	return ""
}

// lookupPath navigates dot/bracket notation ("a.b[2].c") through nested maps
// and slices. Returns nil when any step is missing.
func lookupPath(root map[string]any, path string) any {
	var cur any = root
	for _, part := range strings.Split(path, ".") {
		name := part
		idx := -1
		if open := strings.IndexByte(part, '['); open >= 0 && strings.HasSuffix(part, "]") {
			name = part[:open]
			parsed, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil {
				return nil
			}
			idx = parsed
		}

		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[name]
		if !ok || cur == nil {
			return nil
		}

		if idx >= 0 {
			list, ok := cur.([]any)
			if !ok || idx >= len(list) {
				return nil
			}
			cur = list[idx]
		}
	}
	return cur
}

func valueText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return ""
	}
}

// coerceFloat parses a numeric metadata value with locale tolerance: thousands
// separators are stripped before parsing. Returns false when the value cannot
// be coerced, in which case the field is dropped from metadata.
func coerceFloat(s string) (float64, bool) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
