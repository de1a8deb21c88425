package main

import (
	"github.com/RoninZc/geotiler/provider"
)

// loadProvider resolves the tile map of the task: a provider file, an
// inline URL template, or one of the builtin providers, in that order.
func loadProvider() (*provider.Provider, error) {
	tm := conf.Tm
	if tm.File != "" {
		return provider.Load(tm.File)
	}
	if tm.URL != "" {
		id := tm.ID
		if id == "" {
			id = tm.Name
		}
		return provider.New(provider.Provider{
			ID:         id,
			Name:       tm.Name,
			URL:        tm.URL,
			Subdomains: tm.Subdomains,
			Extension:  tm.Format,
			Limit:      tm.Limit,
		})
	}
	return provider.Builtin().Find(tm.ID)
}
