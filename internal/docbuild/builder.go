// Package docbuild turns property records into per-section text documents
// with derived, filter-ready metadata.
package docbuild

import (
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/flatten"
)

// BuildDocuments renders a property record into one SectionDocument per
// section with surviving content. Sections whose flattened output is empty
// are skipped entirely. Records without an id are rejected before any
// flattening work.
func BuildDocuments(rec *domain.PropertyRecord) ([]domain.SectionDocument, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return nil, domain.ErrMissingPropertyID
	}
	rec.Normalize()

	tags, numerics := deriveMetadata(rec)

	var docs []domain.SectionDocument
	for _, section := range domain.SectionOrder() {
		pairs := flatten.Flatten(rec.Section(section), section, section)
		if len(pairs) == 0 {
			continue
		}

		// The [key-path] prefix is kept in the text body so retrieval
		// results stay traceable to source fields.
		lines := make([]string, len(pairs))
		for i, p := range pairs {
			lines[i] = "[" + p.Path + "] " + p.Value
		}

		docs = append(docs, domain.SectionDocument{
			PropertyID: rec.ID,
			Section:    section,
			Text:       strings.Join(lines, "\n"),
			Tags:       cloneTags(tags),
			Numerics:   cloneNumerics(numerics),
		})
	}
	return docs, nil
}

// deriveMetadata extracts the shared per-property metadata. Absent fields are
// omitted; numeric fields that fail coercion are dropped rather than stored
// as junk.
func deriveMetadata(rec *domain.PropertyRecord) (map[string]string, map[string]float64) {
	tags := map[string]string{}
	if rec.UnitID != "" {
		tags[domain.FieldUnitID] = rec.UnitID
	}
	if loc := firstNonEmpty(rec, locationPaths); loc != "" {
		tags[domain.FieldLocation] = loc
	}
	if pt := firstNonEmpty(rec, typePaths); pt != "" {
		tags[domain.FieldPropertyType] = pt
	}

	numerics := map[string]float64{}
	if raw := firstNonEmpty(rec, bedroomsPaths); raw != "" {
		if f, ok := coerceFloat(raw); ok {
			numerics[domain.FieldBedrooms] = f
		}
	}
	if raw := firstNonEmpty(rec, pricePaths); raw != "" {
		if f, ok := coerceFloat(raw); ok {
			numerics[domain.FieldPrice] = f
		}
	}
	return tags, numerics
}

func cloneTags(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneNumerics(m map[string]float64) map[string]float64 {
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
