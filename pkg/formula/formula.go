// Package formula contains spreadsheet-formula text utilities: response
// normalization, syntax validation, usage analysis, and header tagging.
package formula

import "strings"

const excelPrefix = "excel"

// Normalize reduces a raw model response to bare formula text. It trims
// whitespace and strips backticks; if the remainder begins with the word
// "excel" (a leaked markdown fence label), the prefix and its separator are
// dropped and only the first line of what follows is kept.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "`", "")
	if len(s) >= len(excelPrefix) && strings.EqualFold(s[:len(excelPrefix)], excelPrefix) {
		s = s[len(excelPrefix):]
		if s != "" {
			s = s[1:]
		}
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// Clean normalizes user-supplied formula text: markdown fences are removed
// and a leading '=' is added when missing.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```excel", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "=") {
		s = "=" + s
	}
	return s
}

// Truncate shortens a formula for single-line display.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
