package catalog

import "strings"

// Entry is one (identifier, display name) pair from the parameter catalog.
type Entry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Resolution classifies a typed parameter name. Exactly one of the two
// shapes applies: a known catalog identifier, or a custom free-text name
// (possibly empty when the operator asked for manual entry but has not
// typed a replacement yet).
type Resolution struct {
	Known bool
	ID    int
	Name  string
}

// Known builds a resolution pointing at a catalog identifier.
func Known(id int) Resolution {
	return Resolution{Known: true, ID: id}
}

// Custom builds a free-text resolution.
func Custom(name string) Resolution {
	return Resolution{Name: name}
}

// Index is an in-memory name-to-identifier lookup over the parameter
// catalog. One display name is reserved as the manual-entry sentinel; it
// never resolves to an identifier. Lookups are exact and case sensitive.
type Index struct {
	sentinel string
	ids      map[string]int
}

// NewIndex returns an empty index. sentinel is the display name reserved
// for "enter manually"; it may be empty when no sentinel is exposed.
func NewIndex(sentinel string) *Index {
	return &Index{
		sentinel: sentinel,
		ids:      make(map[string]int),
	}
}

// Load replaces the index contents. The first occurrence of a duplicate
// name wins; entries matching the sentinel or with a blank name are
// dropped.
func (x *Index) Load(entries []Entry) {
	ids := make(map[string]int, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" || name == x.sentinel {
			continue
		}
		if _, ok := ids[name]; ok {
			continue
		}
		ids[name] = e.ID
	}
	x.ids = ids
}

// Resolve classifies typed against the loaded catalog. Purely local: no
// network involvement. An empty or sentinel input yields an empty custom
// resolution; an unmatched name is kept verbatim as the custom name.
func (x *Index) Resolve(typed string) Resolution {
	name := strings.TrimSpace(typed)
	if name == "" || name == x.sentinel {
		return Custom("")
	}
	if id, ok := x.ids[name]; ok {
		return Known(id)
	}
	return Custom(name)
}

// Sentinel returns the reserved manual-entry display name.
func (x *Index) Sentinel() string {
	return x.sentinel
}

// Len reports how many names are currently indexed.
func (x *Index) Len() int {
	return len(x.ids)
}
