package download

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	placeholder     = '_'
	untitled        = "untitled"
	maxSubpathBytes = 200
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

// SanitizeTitle turns a post title into a single safe directory name.
//
// Markup is removed and the text is normalized to NFC so the same Hangul title
// always maps to the same bytes. Path-reserved characters and whitespace become
// '_', other symbols are dropped, and runs of '_' collapse to one. The result
// never contains a path separator and is never empty.
func SanitizeTitle(title string) string {
	s := norm.NFC.String(markupTag.ReplaceAllString(title, ""))

	var b strings.Builder
	b.Grow(len(s))
	lastSep := false
	for _, r := range s {
		switch {
		case isReserved(r) || unicode.IsSpace(r) || r == placeholder:
			if !lastSep {
				b.WriteRune(placeholder)
				lastSep = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || strings.ContainsRune("-.()[]", r):
			b.WriteRune(r)
			lastSep = false
		}
	}

	out := strings.Trim(b.String(), "_.")
	out = truncate(out, maxSubpathBytes)
	if out == "" {
		return untitled
	}
	return out
}

func isReserved(r rune) bool {
	return strings.ContainsRune(`/\:*?"<>|`, r)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return strings.TrimRight(s, "_.")
}
