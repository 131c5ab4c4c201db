// Package htmlsanitize strips markup from free text that users attach to
// invitations and join-request decisions before it is stored.
package htmlsanitize

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTextLen caps stored free text, in runes.
const MaxTextLen = 1000

var strict = bluemonday.StrictPolicy()

// PlainText removes every HTML tag from s, decodes entities, trims it, and
// truncates it to MaxTextLen runes.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
	if utf8.RuneCountInString(out) > MaxTextLen {
		out = string([]rune(out)[:MaxTextLen])
	}
	return out
}

// IsPlainText reports whether s contains no markup at all.
func IsPlainText(s string) bool {
	return strict.Sanitize(s) == html.EscapeString(s)
}
