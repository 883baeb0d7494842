package app

import (
	"path/filepath"
)

// Paths holds all resolved paths for a registry home
type Paths struct {
	Home    string // registry home, e.g. ~/.artreg
	Store   string // <home>/registry.json
	Content string // <home>/artifacts
	Journal string // <home>/journal.ndjson
	Setting string // <home>/setting.yaml
}

// ResolvePaths derives every path from the registry home.
// Explicit store and content locations override the derived ones.
func ResolvePaths(home, store, content string) Paths {
	p := Paths{
		Home:    home,
		Store:   filepath.Join(home, "registry.json"),
		Content: filepath.Join(home, "artifacts"),
		Journal: filepath.Join(home, "journal.ndjson"),
		Setting: filepath.Join(home, "setting.yaml"),
	}
	if store != "" {
		p.Store = store
	}
	if content != "" {
		p.Content = content
	}
	return p
}
