package roster

import (
	"fmt"
	"sort"
	"strings"
)

// Aliases maps informal spellings of a college to its canonical label.
// Chains are flattened when the map is built, so every lookup is one hop and
// Normalize is idempotent. The zero value is an empty map.
type Aliases struct {
	m map[string]string
}

// NewAliases trims keys and values, drops identity entries and resolves
// multi-hop chains ("经管" -> "经管学院" -> "经济与管理学院"). A chain that
// loops back on itself is rejected.
func NewAliases(raw map[string]string) (Aliases, error) {
	trimmed := make(map[string]string, len(raw))
	for k, v := range raw {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || k == v {
			continue
		}
		trimmed[k] = v
	}

	// Sorted keys keep the reported cycle stable between runs.
	keys := make([]string, 0, len(trimmed))
	for k := range trimmed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := make(map[string]string, len(trimmed))
	for _, k := range keys {
		seen := map[string]bool{k: true}
		v := trimmed[k]
		for {
			next, ok := trimmed[v]
			if !ok {
				break
			}
			if seen[v] {
				return Aliases{}, fmt.Errorf("%w: %q", ErrAliasCycle, k)
			}
			seen[v] = true
			v = next
		}
		flat[k] = v
	}
	return Aliases{m: flat}, nil
}

// Lookup returns the canonical label for alias.
func (a Aliases) Lookup(alias string) (string, bool) {
	v, ok := a.m[alias]
	return v, ok
}

// Len returns the number of aliases.
func (a Aliases) Len() int {
	return len(a.m)
}

// Map returns a copy of the flattened alias table.
func (a Aliases) Map() map[string]string {
	out := make(map[string]string, len(a.m))
	for k, v := range a.m {
		out[k] = v
	}
	return out
}

// Targets returns the distinct canonical labels aliases resolve to, sorted.
func (a Aliases) Targets() []string {
	seen := make(map[string]bool)
	for _, v := range a.m {
		seen[v] = true
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Normalize trims a raw college value and resolves it through aliases.
// Unknown values come back trimmed but otherwise unchanged; membership in
// the canonical order is not checked here.
func Normalize(raw string, aliases Aliases) string {
	trimmed := strings.TrimSpace(raw)
	if v, ok := aliases.Lookup(trimmed); ok {
		return v
	}
	return trimmed
}
