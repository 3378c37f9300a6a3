package domain

import (
	"sort"
	"strings"
)

// Product describes one canonical registry entry. The registry is read-only
// for the lifetime of a pipeline; curation happens out of process.
type Product struct {
	ProductID     string            `json:"product_id"`
	CanonicalName string            `json:"canonical_name"`
	Brand         string            `json:"brand"`
	Category      string            `json:"category"`
	Type          string            `json:"type"`
	Aliases       []string          `json:"aliases"`
	Identifiers   map[string]string `json:"identifiers"`
}

// Registry maps product IDs to descriptors.
type Registry map[string]Product

// IDs returns product IDs in sorted order so matching iterates
// deterministically.
func (r Registry) IDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CategoryFor derives the storage category from substrings of the product ID.
// There is no unifying index; this mirrors how collections are keyed on disk.
func CategoryFor(productID string) string {
	switch {
	case strings.Contains(productID, "cleanser"),
		strings.Contains(productID, "moisturizer"),
		strings.Contains(productID, "serum"):
		return "skincare"
	case strings.Contains(productID, "food"),
		strings.Contains(productID, "snack"),
		strings.Contains(productID, "drink"):
		return "food"
	case strings.Contains(productID, "detergent"),
		strings.Contains(productID, "cleaner"):
		return "household"
	default:
		return "unknown"
	}
}
