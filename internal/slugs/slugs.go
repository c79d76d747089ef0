// Package slugs derives URL identifiers from titles and names.
package slugs

import (
	"github.com/gosimple/slug"
)

// Make returns the slug for s. The transform is deterministic and
// idempotent: Make(Make(s)) == Make(s). Non-latin scripts are transliterated.
func Make(s string) string {
	return slug.Make(s)
}

// IsValid reports whether s is already in slug form.
func IsValid(s string) bool {
	return slug.IsSlug(s)
}
