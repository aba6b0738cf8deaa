// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize replaces typographic Unicode characters with plain
// ASCII equivalents so converted Markdown stays portable.
package normalize

import "strings"

// replacer maps curly quotes, dashes, Unicode spaces, and related
// punctuation to their ASCII forms.
var replacer = strings.NewReplacer(
	// Quotation marks.
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
	"‚", "'", // single low-9 quotation mark
	"‛", "'", // single high-reversed-9 quotation mark
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"„", `"`, // double low-9 quotation mark
	"‟", `"`, // double high-reversed-9 quotation mark
	// Dashes.
	"–", "-", // en dash
	"—", "--", // em dash
	"―", "--", // horizontal bar
	// Spaces.
	" ", " ", // no-break space
	" ", " ", // en quad
	" ", " ", // em quad
	" ", " ", // en space
	" ", " ", // em space
	" ", " ", // three-per-em space
	" ", " ", // four-per-em space
	" ", " ", // six-per-em space
	" ", " ", // figure space
	" ", " ", // punctuation space
	" ", " ", // thin space
	" ", " ", // hair space
	// Other punctuation.
	"…", "...", // horizontal ellipsis
	"•", "*", // bullet
	"‣", ">", // triangular bullet
	"′", "'", // prime
	"″", `"`, // double prime
	"‵", "'", // reversed prime
	"‶", `"`, // reversed double prime
)

// ToASCII returns text with typographic Unicode characters replaced by
// their ASCII equivalents. Characters outside the replacement table pass
// through unchanged.
func ToASCII(text string) string {
	return replacer.Replace(text)
}
