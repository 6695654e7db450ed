package chords

import (
	"sort"
	"strings"
)

// Kind tells which variant an Input holds.
type Kind int

const (
	// Unrecognized input contributes no chords.
	Unrecognized Kind = iota
	// Text is a single free-form annotation blob.
	Text
	// Sections is an annotation split into named parts (verse, chorus, ...).
	Sections
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Sections:
		return "sections"
	default:
		return "unrecognized"
	}
}

// Section is one named part of a sectioned annotation. Text is empty when
// the source value was not textual.
type Section struct {
	Name string
	Text string
}

// Input is a raw chord annotation resolved into one of the Kind variants.
// The zero value is Unrecognized.
type Input struct {
	kind     Kind
	text     string
	sections []Section
}

// FromText wraps a free-form annotation.
func FromText(s string) Input {
	return Input{kind: Text, text: s}
}

// FromSections wraps an ordered list of sections. Order is kept as given.
func FromSections(sections []Section) Input {
	cp := make([]Section, len(sections))
	copy(cp, sections)
	return Input{kind: Sections, sections: cp}
}

// FromMap wraps a section mapping. Go maps are unordered, so sections are
// ordered by name to keep concatenation deterministic.
func FromMap(m map[string]string) Input {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]Section, len(names))
	for i, name := range names {
		sections[i] = Section{Name: name, Text: m[name]}
	}
	return Input{kind: Sections, sections: sections}
}

// FromValue resolves a dynamically typed value at the boundary. Strings
// become Text, string-keyed maps become Sections (non-string values
// contribute nothing), everything else is Unrecognized.
func FromValue(v any) Input {
	switch val := v.(type) {
	case nil:
		return Input{}
	case string:
		return FromText(val)
	case *string:
		if val == nil {
			return Input{}
		}
		return FromText(*val)
	case Input:
		return val
	case []Section:
		return FromSections(val)
	case map[string]string:
		return FromMap(val)
	case map[string]any:
		m := make(map[string]string, len(val))
		for k, raw := range val {
			s, _ := raw.(string)
			m[k] = s
		}
		return FromMap(m)
	default:
		return Input{}
	}
}

// Kind returns the variant held by the input.
func (in Input) Kind() Kind {
	return in.kind
}

// Sections returns a copy of the sections, nil unless Kind is Sections.
func (in Input) Sections() []Section {
	if in.kind != Sections {
		return nil
	}
	cp := make([]Section, len(in.sections))
	copy(cp, in.sections)
	return cp
}

// Text returns the plain text the extractor scans: the blob itself for Text,
// the space-joined section texts for Sections and "" otherwise.
func (in Input) Text() string {
	switch in.kind {
	case Text:
		return in.text
	case Sections:
		parts := make([]string, len(in.sections))
		for i, s := range in.sections {
			parts[i] = s.Text
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}
