// Package htmlsanitize strips hostile markup from user-supplied text before
// it is persisted. Identity fields (display names, workspace names) are
// plain text; anything tag-shaped in them is an attack or an accident.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Plain removes all HTML tags and entities from s, returning the bare text.
// Used for display names and workspace names, which are never rendered as
// markup anywhere.
func Plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
