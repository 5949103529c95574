package config

import "slices"

// Resolve lists the module IDs named in the config, sorted. YAML map order is
// not stable across loads, and the loader registers services under fixed keys
// that later modules look up, so loading must happen in a deterministic order.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
