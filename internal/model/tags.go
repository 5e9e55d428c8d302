package model

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tags is an ordered set of labels. Duplicates are suppressed after
// trimming and NFC normalization, so a composed and a decomposed "é" are
// the same tag.
type Tags []string

// NormalizeTag returns the canonical form of a tag.
func NormalizeTag(tag string) string {
	return norm.NFC.String(strings.TrimSpace(tag))
}

// NewTags builds a Tags set from raw labels, keeping first occurrences.
func NewTags(raw ...string) Tags {
	var t Tags
	for _, r := range raw {
		t = t.Add(r)
	}
	return t
}

// Add appends tag unless it is empty or already present.
func (t Tags) Add(tag string) Tags {
	tag = NormalizeTag(tag)
	if tag == "" || t.Contains(tag) {
		return t
	}
	return append(t, tag)
}

// Remove drops tag if present, keeping order.
func (t Tags) Remove(tag string) Tags {
	tag = NormalizeTag(tag)
	out := t[:0:0]
	for _, existing := range t {
		if existing != tag {
			out = append(out, existing)
		}
	}
	return out
}

func (t Tags) Contains(tag string) bool {
	tag = NormalizeTag(tag)
	for _, existing := range t {
		if existing == tag {
			return true
		}
	}
	return false
}
