package utils

import "strings"

// NormalizeSymbol escapes the ampersand, e.g. M&M -> M%26M. Nothing else is
// touched.
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "&", "%26")
}
