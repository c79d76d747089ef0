// Package richtext sanitizes answer markup and renders its plain-text form.
package richtext

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize strips scripts, event handlers and anything else outside the
// user-generated-content allow list.
func Sanitize(content string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(content))
}

// PlainText removes all markup, decodes entities and collapses whitespace.
func PlainText(content string) string {
	stripped := html.UnescapeString(strictPolicy.Sanitize(content))
	return strings.Join(strings.Fields(stripped), " ")
}
