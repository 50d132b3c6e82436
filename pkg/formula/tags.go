package formula

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SmartTag derives a short @CamelCase tag from a header name, so users can
// write "@PaymentDate" instead of the full header text. Headers starting
// with beginning/ending/total words keep a conventional prefix.
func SmartTag(header string) string {
	tag := nonWordRe.ReplaceAllString(header, "")
	tag = whitespaceRe.ReplaceAllString(strings.TrimSpace(tag), "_")

	words := strings.Split(tag, "_")
	if len(words) == 1 {
		return "@" + capitalize(words[0])
	}

	switch strings.ToLower(words[0]) {
	case "beginning", "start":
		return "@Begin" + joinCapitalized(words[1:])
	case "ending", "end":
		return "@End" + joinCapitalized(words[1:])
	case "total", "sum":
		return "@Total" + joinCapitalized(words[1:])
	default:
		return "@" + joinCapitalized(words)
	}
}

func joinCapitalized(words []string) string {
	var b strings.Builder
	for _, w := range words {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

func capitalize(w string) string {
	if w == "" {
		return ""
	}
	r := []rune(strings.ToLower(w))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
