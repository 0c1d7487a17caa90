// Package transform holds the text normalization shared by the matcher, the
// rule engine and the builder: glyph stripping, accent folding and embedded
// token extraction.
package transform

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldKey normalizes a string for keyword comparison: accents removed and
// uppercased, so "Farmácia São João" becomes "FARMACIA SAO JOAO". Input that
// fails unicode normalization is returned uppercased as-is; matching then
// degrades gracefully instead of dropping the line.
func FoldKey(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(folded)
}
