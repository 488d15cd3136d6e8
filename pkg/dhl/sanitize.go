package dhl

import (
	"strings"
)

// asciiFold maps the accented Latin letters DHL's SOAP endpoints choke
// on to their plain ASCII equivalents.
var asciiFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ä': 'a', 'ã': 'a', 'å': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'ö': 'o', 'õ': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ñ': 'n', 'ç': 'c',
	'Á': 'A', 'À': 'A', 'Â': 'A', 'Ä': 'A', 'Ã': 'A', 'Å': 'A',
	'É': 'E', 'È': 'E', 'Ê': 'E', 'Ë': 'E',
	'Í': 'I', 'Ì': 'I', 'Î': 'I', 'Ï': 'I',
	'Ó': 'O', 'Ò': 'O', 'Ô': 'O', 'Ö': 'O', 'Õ': 'O',
	'Ú': 'U', 'Ù': 'U', 'Û': 'U', 'Ü': 'U',
	'Ý': 'Y',
	'Ñ': 'N', 'Ç': 'C',
}

// CleanText ASCII-folds accented Latin letters and trims surrounding
// whitespace. Idempotent: CleanText(CleanText(s)) == CleanText(s).
// XML escaping is applied once at envelope render time, not here.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.TrimSpace(s) {
		if folded, ok := asciiFold[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CleanPhone keeps digits, '+', space, '-', '(' and ')', then truncates
// to 15 characters, the longest phone DHL accepts on an envelope.
func CleanPhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > 15 {
		out = out[:15]
	}
	return out
}
