package core

// RequiredField describes one input a catalog entry needs before it can be
// provisioned. Value holds the default (or user-supplied) value; Example is
// filled in by the enrichment pass when the entry is matched. DependsOn
// names another field's ID when this field is only meaningful once that
// one is set.
type RequiredField struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     string `json:"value,omitempty"`
	ValueType string `json:"value_type"`
	DependsOn string `json:"depends_on,omitempty"`
	Example   string `json:"example,omitempty"`
}

// CatalogEntry is a provisionable service definition. Entries are loaded
// once at startup and treated as immutable for the process lifetime;
// changing the catalog requires a restart.
type CatalogEntry struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Template       string          `json:"template,omitempty"`
	Price          float64         `json:"price"`
	Context        string          `json:"context"`
	Available      bool            `json:"available"`
	RequiredFields []RequiredField `json:"required_fields,omitempty"`
}

// Catalog exposes the read-only reference data. Implementations need no
// synchronization: the data never changes after load.
type Catalog interface {
	// Entries returns the available entries for a context, in load order.
	Entries(context string) []CatalogEntry
	// Names returns the display names of the available entries for a
	// context, in load order.
	Names(context string) []string
	// Find resolves a free-form name against the context's entries using
	// normalized substring matching.
	Find(context, query string) (CatalogEntry, bool)
}
