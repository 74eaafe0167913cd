// Package catalog loads the provisionable-service reference data and
// derives the context-scoped option menus. The catalog is read once at
// startup and immutable afterwards; reloading requires a restart.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/conciergedev/concierge/core"
)

// document is the on-disk catalog shape: a JSON object with an entries
// list.
type document struct {
	Entries []core.CatalogEntry `json:"entries"`
}

// Catalog is the in-memory reference data. Immutable after load, safe for
// concurrent reads without synchronization.
type Catalog struct {
	entries []core.CatalogEntry
}

var _ core.Catalog = (*Catalog)(nil)

// Load reads and decodes the catalog document at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.Entries), nil
}

// New builds a catalog from already-decoded entries. Context tags are
// canonicalized to lowercase.
func New(entries []core.CatalogEntry) *Catalog {
	owned := make([]core.CatalogEntry, len(entries))
	copy(owned, entries)
	for i := range owned {
		owned[i].Context = strings.ToLower(strings.TrimSpace(owned[i].Context))
	}
	return &Catalog{entries: owned}
}

// Entries returns the available entries for a context, in load order.
func (c *Catalog) Entries(context string) []core.CatalogEntry {
	context = strings.ToLower(strings.TrimSpace(context))
	var out []core.CatalogEntry
	for _, e := range c.entries {
		if e.Available && e.Context == context {
			out = append(out, e)
		}
	}
	return out
}

// Names returns the display names of the available entries for a context.
func (c *Catalog) Names(context string) []string {
	entries := c.Entries(context)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Find resolves a free-form name against the context's entries.
//
// Matching rule, applied uniformly: the query and the entry name are
// normalized (lowercased, whitespace collapsed) and the entry matches when
// either string contains the other, or the query equals the entry ID. The
// first match in load order wins.
func (c *Catalog) Find(context, query string) (core.CatalogEntry, bool) {
	q := Normalize(query)
	if q == "" {
		return core.CatalogEntry{}, false
	}
	for _, e := range c.Entries(context) {
		name := Normalize(e.Name)
		if q == strings.ToLower(e.ID) || strings.Contains(name, q) || strings.Contains(q, name) {
			return e, true
		}
	}
	return core.CatalogEntry{}, false
}

// Normalize lowercases a name and collapses runs of whitespace to single
// spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
