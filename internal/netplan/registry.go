package netplan

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PoolEntry describes one subnet/VLAN/address-range assignment for a device
// type or category. Entries are immutable once the registry is built.
type PoolEntry struct {
	Key             string `json:"key"`
	Subnet          string `json:"subnet"` // first three octets, e.g. "192.168.220"
	VLANID          int    `json:"vlan_id"`
	RangeStart      int    `json:"range_start"`
	RangeEnd        int    `json:"range_end"`
	FallbackAddress string `json:"fallback_address"`
}

// Address returns the dotted address for host octet i within the entry's subnet
func (e PoolEntry) Address(i int) string {
	return fmt.Sprintf("%s.%d", e.Subnet, i)
}

// Resolution tags which lookup path produced a pool entry
type Resolution int

const (
	ResolutionExact    Resolution = iota // matched on device type
	ResolutionCategory                   // fell back to category
	ResolutionDefault                    // catch-all entry
)

func (r Resolution) String() string {
	switch r {
	case ResolutionExact:
		return "exact"
	case ResolutionCategory:
		return "category"
	default:
		return "default"
	}
}

// MarshalJSON encodes the resolution as its string form
func (r Resolution) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON decodes the string form back to its constant
func (r *Resolution) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "exact":
		*r = ResolutionExact
	case "category":
		*r = ResolutionCategory
	case "default":
		*r = ResolutionDefault
	default:
		return fmt.Errorf("unknown resolution %q", s)
	}
	return nil
}

// Registry maps device types and categories to address pool entries.
// Built once at startup and injected into the allocator; lookups never fail
// because the catch-all entry always matches.
type Registry struct {
	types      map[string]PoolEntry
	categories map[string]PoolEntry
	catchAll   PoolEntry
}

// NewRegistry builds a registry from type entries, category entries and a
// catch-all entry
func NewRegistry(types, categories []PoolEntry, catchAll PoolEntry) *Registry {
	r := &Registry{
		types:      make(map[string]PoolEntry, len(types)),
		categories: make(map[string]PoolEntry, len(categories)),
		catchAll:   catchAll,
	}
	for _, e := range types {
		r.types[e.Key] = e
	}
	for _, e := range categories {
		r.categories[e.Key] = e
	}
	return r
}

// Lookup resolves a pool entry for a device. Resolution order: exact match
// on device type, then category, then the catch-all entry.
func (r *Registry) Lookup(deviceType, category string) (PoolEntry, Resolution) {
	if e, ok := r.types[deviceType]; ok {
		return e, ResolutionExact
	}
	if e, ok := r.categories[category]; ok {
		return e, ResolutionCategory
	}
	return r.catchAll, ResolutionDefault
}

// Entries returns all entries in the registry, type entries first, then
// category entries, each sorted by key, with the catch-all entry last
func (r *Registry) Entries() []PoolEntry {
	entries := make([]PoolEntry, 0, len(r.types)+len(r.categories)+1)
	for _, e := range r.types {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	categories := make([]PoolEntry, 0, len(r.categories))
	for _, e := range r.categories {
		categories = append(categories, e)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Key < categories[j].Key })

	entries = append(entries, categories...)
	entries = append(entries, r.catchAll)
	return entries
}
