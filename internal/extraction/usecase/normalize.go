package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Devanagari block, kept alongside word characters
const (
	scriptFirst = 'ऀ'
	scriptLast  = 'ॿ'
)

// Normalize canonicalizes a single line of extracted text: NFC, runs of three
// or more identical characters collapsed to one, everything that is not a word
// character, whitespace or Devanagari dropped, whitespace collapsed, trimmed.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)
	s = collapseRepeats(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case !keepRune(r):
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeLines applies Normalize to every line and drops empty lines
func NormalizeLines(s string) string {
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' || r == '\f' })
	out := lines[:0]
	for _, line := range lines {
		if n := Normalize(line); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, "\n")
}

func keepRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || (r >= scriptFirst && r <= scriptLast)
}

// collapseRepeats turns "aaa" into "a" but leaves "aa" alone
func collapseRepeats(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		j := i + 1
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 3 {
			out = append(out, runes[i])
		} else {
			out = append(out, runes[i:j]...)
		}
		i = j
	}
	return string(out)
}
