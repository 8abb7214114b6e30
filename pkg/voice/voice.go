// Package voice parses the engine's "id:name|..." voice list and applies
// registry-backed validity filtering to the user-visible subset, per the
// driver's voice settings (spec §4.4, §6).
package voice

import "strings"

// Voice is one entry in the engine's voice list.
type Voice struct {
	ID   string
	Name string
}

// List is an ordered list of voices, indexed identically to how the engine
// expects SetVoice(index) to be called.
type List []Voice

// Parse parses an "id1:name1|id2:name2|..." string into an ordered List.
// Names may contain spaces; only the first ':' in each entry separates id
// from name, so a name itself may also contain ':'. Malformed entries
// (missing ':') are skipped.
func Parse(s string) List {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	voices := make(List, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		id, name, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		voices = append(voices, Voice{ID: id, Name: name})
	}
	return voices
}

// IndexOf returns the position of id in the list and true, or (0, false) if
// not present.
func (l List) IndexOf(id string) (int, bool) {
	for i, v := range l {
		if v.ID == id {
			return i, true
		}
	}
	return 0, false
}
