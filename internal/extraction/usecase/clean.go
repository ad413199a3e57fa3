package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reAgeGender = regexp.MustCompile(`\(?\s*\d{1,3}\s*[Yy]\s*/?\s*[MF]\s*\)?`)
	reGenderAge = regexp.MustCompile(`\(?\s*[MF]\s*/?\s*\d{1,3}\s*[Yy]?\s*\)?`)

	reStopWords = regexp.MustCompile(`(?i)\b(?:DOB|Age|Gender|Sex|MRN|VID|ID|Patient\s+No|UHID|Registration|Tests\s+Done|Sample\s+Collected)\b`)

	// longer alternatives first, the engine is leftmost-first
	reHonorific = regexp.MustCompile(`(?i)^\s*(?:mrs|mr|miss|ms|dr|shri|smt|sh|श्रीमती|श्री)\.?\s+`)

	reCodeTokens = regexp.MustCompile(`(?i)\bNo\.?\s*[:\-]?\s*\d+\b|\bC\d+\b|\bT\d+\b|\bVID\s*[:\-]?\d+\b|\b\d{1,4}\b`)

	reBarcode = regexp.MustCompile(`^[A-Z0-9]{8,}$`)
)

var junkPhrases = map[string]struct{}{
	"sample collected": {},
	"tests done":       {},
	"lab report":       {},
	"report":           {},
	"result":           {},
	"date":             {},
	"patient no":       {},
}

const maxNameTokens = 6

// Clean turns a raw candidate into a patient name or "". It is applied until
// it reaches a fixed point, so Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || reBarcode.MatchString(raw) {
		return ""
	}
	cur := raw
	// passes only shorten the string once NFC has settled
	for i := 2*utf8.RuneCountInString(raw) + 4; i > 0; i-- {
		next := cleanOnce(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return cur
}

func cleanOnce(s string) string {
	s = Normalize(s)

	s = reAgeGender.ReplaceAllString(s, "")
	s = reGenderAge.ReplaceAllString(s, "")

	if loc := reStopWords.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}

	s = reHonorific.ReplaceAllString(s, "")
	s = reCodeTokens.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if reBarcode.MatchString(s) {
		return ""
	}
	if _, junk := junkPhrases[strings.ToLower(s)]; junk {
		return ""
	}
	if len(strings.Fields(s)) > maxNameTokens {
		return ""
	}
	return s
}

// displayName title-cases names that carry no lower-case letters
func displayName(s string) string {
	for _, r := range s {
		if unicode.IsLower(r) {
			return s
		}
	}
	tokens := strings.Fields(s)
	for i, t := range tokens {
		tokens[i] = capitalize(t)
	}
	return strings.Join(tokens, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
