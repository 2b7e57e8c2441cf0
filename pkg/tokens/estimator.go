// Package tokens estimates token costs and trims evidence bundles to
// configured budgets before prompt rendering.
package tokens

import "unicode/utf8"

// Estimate approximates the token cost of a text at four characters per
// token. Non-empty text always costs at least one token.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		return 1
	}
	return n
}
