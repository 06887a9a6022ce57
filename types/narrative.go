package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// LocalizedText is one locale's rendition of a narrative line.
type LocalizedText struct {
	Locale string `json:"locale"` // e.g. "en-GB"
	Text   string `json:"text"`
}

// TextVariant is one weighted, optionally condition-gated narrative variant.
type TextVariant struct {
	Text      string     `json:"text"`
	Weight    float64    `json:"weight,omitempty"` // default 1
	Condition *Condition `json:"condition,omitempty"`
}

// NarrativeText is a union over the three narrative forms a bundle may use:
// a plain string, a localized-text array, or a weighted variant array.
// Exactly one of the fields is populated.
type NarrativeText struct {
	Plain     string
	Localized []LocalizedText
	Variants  []TextVariant
}

// Plain wraps a literal string as narrative text.
func PlainText(s string) NarrativeText {
	return NarrativeText{Plain: s}
}

// IsZero reports whether no narrative form is present. An empty plain
// string counts as absent.
func (n NarrativeText) IsZero() bool {
	return n.Plain == "" && n.Localized == nil && n.Variants == nil
}

// UnmarshalJSON decodes the union: a JSON string becomes Plain; an array
// whose first element carries a "locale" key becomes Localized; any other
// array becomes Variants.
func (n *NarrativeText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*n = NarrativeText{}
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*n = NarrativeText{Plain: s}
		return nil
	}

	if trimmed[0] != '[' {
		return fmt.Errorf("narrative text must be a string or array, got %s", preview(trimmed))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		*n = NarrativeText{Variants: []TextVariant{}}
		return nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw[0], &probe); err != nil {
		return fmt.Errorf("narrative array elements must be objects: %w", err)
	}

	if _, hasLocale := probe["locale"]; hasLocale {
		var localized []LocalizedText
		if err := json.Unmarshal(trimmed, &localized); err != nil {
			return err
		}
		*n = NarrativeText{Localized: localized}
		return nil
	}

	var variants []TextVariant
	if err := json.Unmarshal(trimmed, &variants); err != nil {
		return err
	}
	*n = NarrativeText{Variants: variants}
	return nil
}

// MarshalJSON emits whichever form is present; zero encodes as null.
func (n NarrativeText) MarshalJSON() ([]byte, error) {
	switch {
	case n.Localized != nil:
		return json.Marshal(n.Localized)
	case n.Variants != nil:
		return json.Marshal(n.Variants)
	case n.Plain != "":
		return json.Marshal(n.Plain)
	default:
		return []byte("null"), nil
	}
}

func preview(data []byte) string {
	if len(data) > 16 {
		data = data[:16]
	}
	return string(data)
}
