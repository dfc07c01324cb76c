// Package sanitize cleans user-supplied text before it is stored or echoed
// back to Telegram.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy strips every HTML element. Policies are safe for concurrent use
// once built.
var policy = bluemonday.StrictPolicy()

// Text strips HTML markup from s, decodes entities and trims surrounding
// whitespace. Plain text comes back unchanged apart from the trimming.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<>&") {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
