package usecase

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	reFilenameSep = regexp.MustCompile(`[_\-]+`)
	// naming convention of one originating lab: <digits>_<name>_wl
	reLabBypass = regexp.MustCompile(`^\d+_.*_wl$`)
)

var trailingBoilerplate = map[string]struct{}{
	"WL":     {},
	"REPORT": {},
	"RESULT": {},
}

// Stem returns the base name of filename without its extension
func Stem(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsLabBypass reports whether filename follows the convention whose filenames
// are trusted over PDF content
func IsLabBypass(filename string) bool {
	return reLabBypass.MatchString(strings.ToLower(Stem(filename)))
}

// FromFilename derives a name from the filename stem. The result may be empty.
func FromFilename(filename string) string {
	var parts []string
	for _, p := range reFilenameSep.Split(Stem(filename), -1) {
		if p == "" || isDigits(p) {
			continue
		}
		parts = append(parts, p)
	}
	if n := len(parts); n > 0 {
		if _, ok := trailingBoilerplate[strings.ToUpper(parts[n-1])]; ok {
			parts = parts[:n-1]
		}
	}

	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		letters := strings.Map(func(r rune) rune {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= scriptFirst && r <= scriptLast) {
				return r
			}
			return -1
		}, p)
		if len([]rune(letters)) <= 1 {
			continue
		}
		tokens = append(tokens, capitalize(letters))
	}
	return strings.Join(tokens, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
