// Package community maps a submitted location to a regional community-group link.
package community

import "strings"

// DefaultLink is used when no city matches.
const DefaultLink = "https://chat.whatsapp.com/example"

var builtin = map[string]string{
	"bangalore": "https://chat.whatsapp.com/corposale-bangalore",
	"bengaluru": "https://chat.whatsapp.com/corposale-bangalore",
	"pune":      "https://chat.whatsapp.com/corposale-pune",
	"mumbai":    "https://chat.whatsapp.com/corposale-mumbai",
	"delhi":     "https://chat.whatsapp.com/corposale-delhi",
	"hyderabad": "https://chat.whatsapp.com/corposale-hyderabad",
	"chennai":   "https://chat.whatsapp.com/corposale-chennai",
}

// Resolver holds the city -> link table.
type Resolver struct {
	links    map[string]string
	fallback string
}

// NewResolver layers overrides (keys lower-case) on top of the built-in cities.
// An empty fallback keeps DefaultLink.
func NewResolver(overrides map[string]string, fallback string) *Resolver {
	links := make(map[string]string, len(builtin)+len(overrides))
	for k, v := range builtin {
		links[k] = v
	}
	for k, v := range overrides {
		links[strings.ToLower(strings.TrimSpace(k))] = v
	}
	if fallback == "" {
		fallback = DefaultLink
	}
	return &Resolver{links: links, fallback: fallback}
}

// Resolve matches the lower-cased text before the first comma exactly.
func (r *Resolver) Resolve(location string) string {
	city, _, _ := strings.Cut(location, ",")
	if link, ok := r.links[strings.ToLower(strings.TrimSpace(city))]; ok {
		return link
	}
	return r.fallback
}
