package usecase

import "report-intake/internal/extraction/domain"

// NameExtractor is the capability injected into account sessions and the
// extract-name endpoint
type NameExtractor interface {
	Extract(content []byte, filename string) domain.Result
}

// DocumentReader turns PDF bytes into text. PageTexts returns one string per
// page with lines separated by '\n'.
type DocumentReader interface {
	PageTexts(content []byte) ([]string, error)
	Tables(content []byte) ([]domain.Table, error)
}

// PersonRecognizer returns person entities found in text, in document order
type PersonRecognizer interface {
	PersonNames(text string) []string
}
