package docskema

import "strings"

// Presence is the bit flag a document records per dotted path while it is
// constructed or assigned.
type Presence uint8

const (
	PresenceSeen           Presence = 1 << iota // Path appeared in the input or was Set.
	PresenceWasNull                             // Value was null.
	PresenceDefaultApplied                      // Default value was applied.
)

// PresenceMap maps dotted paths to Presence flags.
type PresenceMap map[string]Presence

func (p Presence) String() string {
	if p == 0 {
		return "missing"
	}
	var parts []string
	if p&PresenceSeen != 0 {
		parts = append(parts, "seen")
	}
	if p&PresenceWasNull != 0 {
		parts = append(parts, "null")
	}
	if p&PresenceDefaultApplied != 0 {
		parts = append(parts, "default")
	}
	return strings.Join(parts, "|")
}

// PresenceMap returns a copy of the presence flags recorded by the document,
// optionally limited to paths under the given prefixes.
func (d *Document) PresenceMap(prefixes ...string) PresenceMap {
	out := make(PresenceMap, len(d.presence))
	for k, v := range d.presence {
		if len(prefixes) > 0 && !hasAnyPrefix(k, prefixes) {
			continue
		}
		out[k] = v
	}
	return out
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}
	return false
}
