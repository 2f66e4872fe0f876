// Package chunker splits section documents into bounded, overlapping chunks
// with stable zero-based indices per parent document.
package chunker

import (
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// Default splitting parameters.
const (
	DefaultMaxChars = 800
	DefaultOverlap  = 120
)

// separators is the boundary hierarchy, largest natural boundary first. The
// empty string is the terminal fallback: raw character windows.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts document text at the largest natural boundary that keeps each
// piece within maxChars, overlapping adjacent chunks to preserve context.
type Splitter struct {
	maxChars int
	overlap  int
}

// New creates a splitter. Non-positive arguments fall back to the defaults.
func New(maxChars, overlap int) *Splitter {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 || overlap >= maxChars {
		overlap = DefaultOverlap
		if overlap >= maxChars {
			overlap = maxChars / 4
		}
	}
	return &Splitter{maxChars: maxChars, overlap: overlap}
}

// Chunk splits each document's text and copies the document's metadata onto
// every resulting chunk. A document shorter than maxChars yields exactly one
// chunk with index 0.
func (s *Splitter) Chunk(docs []domain.SectionDocument) []domain.Chunk {
	var out []domain.Chunk
	for i := range docs {
		d := &docs[i]
		for idx, text := range s.SplitText(d.Text) {
			out = append(out, domain.Chunk{
				PropertyID: d.PropertyID,
				Section:    d.Section,
				Index:      idx,
				Text:       text,
				Tags:       copyTags(d.Tags),
				Numerics:   copyNumerics(d.Numerics),
			})
		}
	}
	return out
}

// SplitText splits raw text into bounded pieces. Splitting is deterministic:
// identical text and parameters always yield identical boundaries.
func (s *Splitter) SplitText(text string) []string {
	return s.split(text, separators)
}

func (s *Splitter) split(text string, seps []string) []string {
	if len(text) <= s.maxChars {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	sep, rest := pickSeparator(text, seps)
	if sep == "" {
		return s.hardSplit(text)
	}

	var final []string
	var good []string
	for _, piece := range splitAfter(text, sep) {
		if len(piece) <= s.maxChars {
			good = append(good, piece)
			continue
		}
		// An oversized piece: flush accumulated pieces, then recurse with
		// the finer-grained separators.
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		final = append(final, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

// merge accumulates pieces into chunks of at most maxChars, carrying a tail
// window of up to overlap chars into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var window []string
	total := 0

	for _, p := range pieces {
		if total+len(p) > s.maxChars && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
				chunks = append(chunks, doc)
			}
			for len(window) > 0 && (total > s.overlap || total+len(p) > s.maxChars) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, p)
		total += len(p)
	}

	if doc := strings.TrimSpace(strings.Join(window, "")); doc != "" {
		chunks = append(chunks, doc)
	}
	return chunks
}

// hardSplit cuts raw character windows, stepping by maxChars-overlap.
func (s *Splitter) hardSplit(text string) []string {
	step := s.maxChars - s.overlap
	if step < 1 {
		step = 1
	}
	var out []string
	for start := 0; start < len(text); start += step {
		end := start + s.maxChars
		if end > len(text) {
			end = len(text)
		}
		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			out = append(out, piece)
		}
		if end == len(text) {
			break
		}
	}
	return out
}

// pickSeparator returns the first separator present in the text and the
// remaining, finer separators after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, cand := range seps {
		if cand == "" {
			return "", nil
		}
		if strings.Contains(text, cand) {
			return cand, seps[i+1:]
		}
	}
	return "", nil
}

// splitAfter splits keeping the separator attached, so rejoining pieces
// reproduces the original text.
func splitAfter(text, sep string) []string {
	raw := strings.SplitAfter(text, sep)
	out := raw[:0]
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func copyTags(m map[string]string) map[string]string {
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyNumerics(m map[string]float64) map[string]float64 {
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
