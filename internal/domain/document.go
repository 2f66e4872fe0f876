package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Metadata field names shared between the pipeline, the adapters, and the
// search engine. Tag fields carry strings, numeric fields carry floats.
const (
	FieldPropertyID   = "property_id"
	FieldSection      = "section"
	FieldUnitID       = "unitId"
	FieldLocation     = "location"
	FieldPropertyType = "property_type"
	FieldBedrooms     = "bedrooms"
	FieldPrice        = "price"
	FieldChunkIndex   = "chunk_index"
)

// SectionDocument is one rendered section of a property record: newline-joined
// "[key-path] value" lines plus derived metadata. Created fresh on every
// upsert and never mutated after chunking.
type SectionDocument struct {
	PropertyID string
	Section    string
	Text       string

	// Tags holds string metadata (unitId, location, property_type). Absent
	// fields are omitted from the map, never stored empty.
	Tags map[string]string
	// Numerics holds coerced float metadata (bedrooms, price). Fields that
	// fail coercion are omitted.
	Numerics map[string]float64
}

// Chunk is a bounded slice of a SectionDocument's text, the unit embedded and
// indexed. Index is zero-based and scoped to the parent document.
type Chunk struct {
	PropertyID string
	Section    string
	Index      int
	Text       string
	Tags       map[string]string
	Numerics   map[string]float64
	Vector     []float32
}

// ID returns the stable composite chunk identity. The format is shared with
// external tooling that inspects the store directly, so it must not change.
func (c *Chunk) ID() string {
	return c.PropertyID + "::" + c.Section + "::" + strconv.Itoa(c.Index)
}

// ParseChunkID splits a composite chunk identity into its parts.
func ParseChunkID(id string) (propertyID, section string, index int, err error) {
	parts := strings.Split(id, "::")
	if len(parts) != 3 {
		return "", "", 0, fmt.Errorf("malformed chunk id %q", id)
	}
	idx, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", "", 0, fmt.Errorf("malformed chunk index in %q: %w", id, err)
	}
	return parts[0], parts[1], idx, nil
}

// SearchCandidate is a query-time hit: stored chunk text and metadata plus a
// similarity score (1 - cosine distance, higher is more similar). The score is
// not clamped; callers must not assume a [0,1] bound.
type SearchCandidate struct {
	ID       string
	Score    float64
	Text     string
	Tags     map[string]string
	Numerics map[string]float64
}

// FilterSet carries the structured predicates accepted from callers. Zero
// values mean "filter inactive" and are ignored, not treated as errors.
type FilterSet struct {
	Location     string   // substring match, case-insensitive
	PropertyType string   // exact match, case-insensitive
	Bedrooms     *float64 // minimum, with 0.1 tolerance
	BudgetMax    *float64 // maximum, with a small epsilon
}

// IsEmpty reports whether no structured predicate is active.
func (f FilterSet) IsEmpty() bool {
	return f.Location == "" && f.PropertyType == "" && f.Bedrooms == nil && f.BudgetMax == nil
}

// HardFilter is an exact-match predicate an adapter may push down into its
// query. Adapters that cannot are handled client-side by the search engine.
type HardFilter struct {
	Field string
	Value string
}
