package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"report-intake/internal/extraction/domain"

	"go.uber.org/zap"
)

// Label patterns, tried in order. Each captures to the end of its line.
var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)\bpatient\s*name\s*[:\-]?\s*(.+)$`),
	regexp.MustCompile(`(?im)\bname\s*[:\-]?\s*(.+)$`),
	regexp.MustCompile(`(?im)\bpatient\s*[:\-]?\s*(.+)$`),
}

const (
	minLineTokens = 2
	maxLineTokens = 5
)

// Extractor finds the patient name in a lab report. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	reader     DocumentReader
	recognizer PersonRecognizer
	logger     *zap.Logger
}

// NewExtractor creates an extractor. recognizer may be nil, which disables
// the named-entity stage.
func NewExtractor(reader DocumentReader, recognizer PersonRecognizer, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		reader:     reader,
		recognizer: recognizer,
		logger:     logger.Named("extractor"),
	}
}

// Extract never fails: every stage that errors falls through to the next,
// and the filename stage is the last resort.
func (e *Extractor) Extract(content []byte, filename string) domain.Result {
	if IsLabBypass(filename) {
		return domain.Result{PatientName: FromFilename(filename), Provenance: domain.ProvenanceFilename}
	}

	if text := e.pageText(content, filename); text != "" {
		if name, prov := e.fromText(text); name != "" {
			return domain.Result{PatientName: name, Provenance: prov}
		}
	}

	if name := e.fromTables(content, filename); name != "" {
		return domain.Result{PatientName: name, Provenance: domain.ProvenanceTableCell}
	}

	return domain.Result{PatientName: FromFilename(filename), Provenance: domain.ProvenanceFilename}
}

// fromText runs the label, named-entity and line-scan stages over normalized text
func (e *Extractor) fromText(text string) (string, domain.Provenance) {
	for _, re := range labelPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := Clean(m[1]); name != "" {
				return displayName(name), domain.ProvenanceTextLabel
			}
		}
	}

	for _, ent := range e.persons(text) {
		if name := Clean(ent); name != "" {
			return displayName(name), domain.ProvenanceNamedEntity
		}
	}

	for _, line := range strings.Split(text, "\n") {
		name := Clean(line)
		if n := len(strings.Fields(name)); n >= minLineTokens && n <= maxLineTokens {
			return displayName(name), domain.ProvenanceTextLabel
		}
	}
	return "", ""
}

func (e *Extractor) fromTables(content []byte, filename string) (name string) {
	defer e.guard("tables", filename, func() { name = "" })

	tables, err := e.reader.Tables(content)
	if err != nil {
		e.logger.Debug("table extraction failed", zap.String("filename", filename), zap.Error(err))
		return ""
	}
	for _, table := range tables {
		for _, row := range table {
			for _, cell := range row {
				text := NormalizeLines(cell)
				if text == "" {
					continue
				}
				if candidate, _ := e.fromText(text); candidate != "" {
					return candidate
				}
			}
		}
	}
	return ""
}

func (e *Extractor) pageText(content []byte, filename string) (text string) {
	defer e.guard("text", filename, func() { text = "" })

	pages, err := e.reader.PageTexts(content)
	if err != nil {
		e.logger.Debug("text extraction failed", zap.String("filename", filename), zap.Error(err))
		return ""
	}
	normalized := make([]string, 0, len(pages))
	for _, page := range pages {
		if n := NormalizeLines(page); n != "" {
			normalized = append(normalized, n)
		}
	}
	return strings.Join(normalized, "\n")
}

func (e *Extractor) persons(text string) (names []string) {
	if e.recognizer == nil {
		return nil
	}
	defer e.guard("ner", "", func() { names = nil })
	return e.recognizer.PersonNames(text)
}

// guard converts a panic from a third-party decoder into a stage miss
func (e *Extractor) guard(stage, filename string, reset func()) {
	if r := recover(); r != nil {
		e.logger.Warn("extraction stage panicked",
			zap.String("stage", stage),
			zap.String("filename", filename),
			zap.String("panic", fmt.Sprint(r)),
		)
		reset()
	}
}
