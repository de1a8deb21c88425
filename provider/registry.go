package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds providers by id.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]*Provider)}
}

// Register adds p, replacing a provider with the same id.
func (r *Registry) Register(p *Provider) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID] = p
	return nil
}

// LoadFile loads a provider file and registers it.
func (r *Registry) LoadFile(path string) (*Provider, error) {
	p, err := Load(path)
	if err != nil {
		return nil, err
	}
	return p, r.Register(p)
}

// Find returns the provider registered under id.
func (r *Registry) Find(id string) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	return p, nil
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var builtin = []Provider{
	{
		ID:          "osm",
		Name:        "OpenStreetMap",
		Attribution: "© OpenStreetMap contributors\nhttp://www.openstreetmap.org/copyright",
		URL:         "https://{subdomain}.tile.openstreetmap.org/{z}/{x}/{y}.{ext}",
		Subdomains:  []string{"a", "b", "c"},
		Limit:       2,
	},
	{
		ID:          "opentopomap",
		Name:        "OpenTopoMap",
		Attribution: "© OpenStreetMap contributors, SRTM | © OpenTopoMap (CC-BY-SA)",
		URL:         "https://{subdomain}.tile.opentopomap.org/{z}/{x}/{y}.{ext}",
		Subdomains:  []string{"a", "b", "c"},
		Limit:       2,
	},
	{
		ID:          "stamen-toner",
		Name:        "Stamen Toner",
		Attribution: "© Stadia Maps © Stamen Design © OpenStreetMap contributors",
		URL:         "https://tiles.stadiamaps.com/tiles/stamen_toner/{z}/{x}/{y}.{ext}",
	},
	{
		ID:          "esri-world-imagery",
		Name:        "Esri World Imagery",
		Attribution: "Tiles © Esri",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Extension:   "jpg",
		Limit:       4,
	},
}

// Builtin returns a registry with the providers shipped with GeoTiler.
// It panics if a builtin entry is invalid.
func Builtin() *Registry {
	r := NewRegistry()
	for _, p := range builtin {
		np, err := New(p)
		if err == nil {
			err = r.Register(np)
		}
		if err != nil {
			panic(fmt.Sprintf("builtin provider %s: %v", p.ID, err))
		}
	}
	return r
}
