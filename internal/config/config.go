package config

import (
	"github.com/spf13/viper"
)

// DefaultDBPath is where the estimate database lives unless overridden.
const DefaultDBPath = "~/.config/ratebook/ratebook.db"

// defaultPrefixes maps cost categories to rate code prefixes. The table is
// configuration: callers pass it into the allocator rather than the allocator
// reading it as ambient state.
var defaultPrefixes = map[string]string{
	"concrete":   "CONC",
	"blockwork":  "BLCK",
	"steelwork":  "STL",
	"carpentry":  "CARP",
	"electrical": "ELEC",
	"plumbing":   "PLMB",
	"finishes":   "FIN",
	"earthworks": "ERTH",
}

// DBPath resolves the database path from configuration.
func DBPath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDBPath
	}
	return ExpandPath(path)
}

// RatePrefixes returns the category-to-prefix table, merging any configured
// overrides (`rates.prefixes`) over the built-in defaults.
func RatePrefixes() map[string]string {
	prefixes := make(map[string]string, len(defaultPrefixes))
	for category, prefix := range defaultPrefixes {
		prefixes[category] = prefix
	}
	for category, prefix := range viper.GetStringMapString("rates.prefixes") {
		prefixes[category] = prefix
	}
	return prefixes
}
