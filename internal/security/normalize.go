package security

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the lookup key for a user name or email: NFKC
// composed, trimmed and upper-cased with language-neutral rules.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	// cases.Caser is stateful, so each call gets its own.
	return cases.Upper(language.Und).String(norm.NFKC.String(name))
}
