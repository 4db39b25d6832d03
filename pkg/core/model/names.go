package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims, collapses inner whitespace and upper-cases a volunteer name
func NormalizeName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	return cases.Upper(language.Und).String(collapsed)
}

// Slug derives the volunteer key from a name: accents stripped, lower case,
// anything outside [a-z0-9] collapsed to a single dash.
// "Nicolò  D'Amico" and "NICOLO D AMICO" share the slug "nicolo-d-amico".
func Slug(name string) string {
	// transformers carry state, so each call builds its own chain
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}
