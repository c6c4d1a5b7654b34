package language

import (
	"regexp"
	"strings"
	"unicode"
)

// disallowedRe matches everything the tokenizer drops. Every rune isSpace
// accepts is kept so the split below still sees it.
var disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9\s\v\x{85}\x1c-\x1f\p{Z}.,!?]`)

// isSpace reports whether r separates tokens. It extends unicode.IsSpace
// with the ASCII information separators U+001C..U+001F.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Preprocess lowercases text, strips every character that is not an ASCII
// letter, digit, whitespace or one of ".,!?" and splits on whitespace.
func Preprocess(text string) []string {
	text = strings.ToLower(text)
	text = disallowedRe.ReplaceAllString(text, "")
	return strings.FieldsFunc(text, isSpace)
}

// Join renders tokens as a single space separated string.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// IsTerminator reports whether token ends a sentence.
func IsTerminator(token string) bool {
	switch token {
	case ".", "!", "?":
		return true
	}
	return false
}
