// Package normalize canonicalises user-supplied strings before they are
// stored or compared.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses internal runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role lowercases and trims a role or status token.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
