package db

import (
	"math"
	"testing"
)

func TestTagFilter_Escaping(t *testing.T) {
	tests := []struct {
		field, value string
		want         string
	}{
		{"property_id", "p1", "@property_id:{p1}"},
		{"conversation_id", "conv-1", `@conversation_id:{conv\-1}`},
		{"location", "Thao Dien, District 2", `@location:{Thao\ Dien\,\ District\ 2}`},
		{"property_type", "apartment@river", `@property_type:{apartment\@river}`},
	}
	for _, tc := range tests {
		if got := TagFilter(tc.field, tc.value); got != tc.want {
			t.Errorf("TagFilter(%q, %q) = %q, want %q", tc.field, tc.value, got, tc.want)
		}
	}
}

func TestVectorBytes_RoundTrip(t *testing.T) {
	in := []float32{0, 1, -2.5, 0.125, float32(math.Pi)}

	encoded := VectorBytes(in)
	if len(encoded) != len(in)*4 {
		t.Fatalf("encoded length = %d, want %d", len(encoded), len(in)*4)
	}

	out, err := VectorFromBytes([]byte(encoded))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded length = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("component %d = %f, want %f", i, out[i], in[i])
		}
	}
}

func TestVectorBytes_LittleEndian(t *testing.T) {
	// 1.0 is 0x3f800000, little-endian on the wire
	got := VectorBytes([]float32{1.0})
	want := "\x00\x00\x80\x3f"
	if got != want {
		t.Errorf("encoded = %q, want %q", got, want)
	}
}

func TestVectorFromBytes_InvalidLength(t *testing.T) {
	if _, err := VectorFromBytes([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-multiple-of-4 length")
	}
}

func TestIndexDefinition_Validate(t *testing.T) {
	valid := IndexDefinition{
		Name:   "propdex:chunk_idx",
		Fields: []IndexField{{Name: "property_id", Type: IndexFieldTag}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		def  IndexDefinition
	}{
		{"empty name", IndexDefinition{Fields: []IndexField{{Name: "f", Type: IndexFieldTag}}}},
		{"bad identifier", IndexDefinition{Name: "idx with spaces", Fields: []IndexField{{Name: "f", Type: IndexFieldTag}}}},
		{"no fields", IndexDefinition{Name: "idx"}},
		{"duplicate field", IndexDefinition{Name: "idx", Fields: []IndexField{
			{Name: "f", Type: IndexFieldTag},
			{Name: "f", Type: IndexFieldNumeric},
		}}},
		{"vector without dim", IndexDefinition{Name: "idx", Fields: []IndexField{
			{Name: "vector", Type: IndexFieldVector},
		}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.def.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
