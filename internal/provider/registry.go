package provider

import (
	"fmt"
	"sort"
)

// Registry is the closed table of provider descriptors. It is populated
// once at startup and read-only afterwards, so lookups need no locking.
type Registry struct {
	descriptors map[ProviderID]*Descriptor
	sealed      bool
}

func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[ProviderID]*Descriptor),
	}
}

// MustRegister adds a descriptor to the table. A duplicate id or a
// descriptor without a parser is a programming error in the catalog, not
// a runtime condition, so it panics.
func (r *Registry) MustRegister(d *Descriptor) {
	if r.sealed {
		panic("provider: register after seal")
	}
	if d.ID == "" {
		panic("provider: descriptor without id")
	}
	if d.Parser == nil {
		panic(fmt.Sprintf("provider: descriptor %q without parser", d.ID))
	}
	if len(d.Strategies) == 0 {
		panic(fmt.Sprintf("provider: descriptor %q without strategies", d.ID))
	}
	if _, exists := r.descriptors[d.ID]; exists {
		panic(fmt.Sprintf("provider: duplicate descriptor id %q", d.ID))
	}
	r.descriptors[d.ID] = d
}

// Seal freezes the table. Registration after Seal panics.
func (r *Registry) Seal() { r.sealed = true }

// Lookup returns the descriptor for id.
func (r *Registry) Lookup(id ProviderID) (*Descriptor, bool) {
	d, ok := r.descriptors[id]
	return d, ok
}

// All returns every descriptor ordered by id.
func (r *Registry) All() []*Descriptor {
	ds := make([]*Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].ID < ds[j].ID
	})
	return ds
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.descriptors) }
