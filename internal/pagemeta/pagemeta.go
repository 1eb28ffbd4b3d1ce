// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package pagemeta serves the static page metadata (titles, descriptions,
// Open Graph fields) the frontend attaches to each route.
package pagemeta

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed pages.toml
var pagesTOML []byte

// Page is the metadata for one frontend route.
type Page struct { //nolint:govet // fieldalignment not critical for config structs
	Title         string `toml:"title" json:"title"`
	Description   string `toml:"description" json:"description"`
	Path          string `toml:"path" json:"-"`
	Image         string `toml:"image" json:"image"`
	SiteName      string `toml:"site_name" json:"siteName"`
	TwitterHandle string `toml:"twitter_handle" json:"twitterHandle"`

	// URL is derived from the configured base URL and Path.
	URL string `toml:"-" json:"url"`
}

// Catalog holds the metadata for all known pages.
type Catalog struct {
	pages map[string]Page
}

// Load parses the embedded page metadata, resolving canonical URLs against
// baseURL.
func Load(baseURL, siteName string) (*Catalog, error) {
	var file struct {
		Pages map[string]Page `toml:"pages"`
	}
	if err := toml.Unmarshal(pagesTOML, &file); err != nil {
		return nil, fmt.Errorf("parsing page metadata: %w", err)
	}

	for name, p := range file.Pages {
		p.URL = baseURL + p.Path
		p.Image = baseURL + p.Image
		if p.SiteName == "" {
			p.SiteName = siteName
		}
		file.Pages[name] = p
	}

	return &Catalog{pages: file.Pages}, nil
}

// Get returns the metadata for a page name.
func (c *Catalog) Get(name string) (Page, bool) {
	p, ok := c.pages[name]
	return p, ok
}
