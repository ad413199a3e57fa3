// Package pdftext reads text and table layout out of PDF documents.
package pdftext

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"report-intake/internal/extraction/domain"

	"github.com/ledongthuc/pdf"
)

// Gaps are expressed as multiples of the font size
const (
	defaultWordGap  = 0.2
	defaultCellGap  = 1.5
	defaultFontSize = 10
)

// Reader implements extraction's DocumentReader on top of ledongthuc/pdf
type Reader struct {
	WordGap  float64
	CellGap  float64
	MaxPages int
}

// NewReader creates a reader with default layout thresholds
func NewReader() *Reader {
	return &Reader{WordGap: defaultWordGap, CellGap: defaultCellGap}
}

// PageTexts returns one string per page, one line per text row
func (r *Reader) PageTexts(content []byte) ([]string, error) {
	pages, err := r.rows(content)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(pages))
	for _, rows := range pages {
		lines := make([]string, 0, len(rows))
		for _, cells := range rows {
			lines = append(lines, strings.Join(cells, " "))
		}
		texts = append(texts, strings.Join(lines, "\n"))
	}
	return texts, nil
}

// Tables groups consecutive rows with two or more cells into tables
func (r *Reader) Tables(content []byte) ([]domain.Table, error) {
	pages, err := r.rows(content)
	if err != nil {
		return nil, err
	}
	var tables []domain.Table
	for _, rows := range pages {
		var current domain.Table
		for _, cells := range rows {
			if len(cells) >= 2 {
				current = append(current, cells)
				continue
			}
			if len(current) > 0 {
				tables = append(tables, current)
				current = nil
			}
		}
		if len(current) > 0 {
			tables = append(tables, current)
		}
	}
	return tables, nil
}

// rows decodes every page into rows of cells, top of the page first
func (r *Reader) rows(content []byte) (pages [][][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("pdf decode panic: %v", rec)
		}
	}()

	doc, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	n := doc.NumPage()
	if r.MaxPages > 0 && n > r.MaxPages {
		n = r.MaxPages
	}
	for i := 1; i <= n; i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		textRows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		sort.SliceStable(textRows, func(a, b int) bool { return textRows[a].Position > textRows[b].Position })

		var rows [][]string
		for _, row := range textRows {
			if cells := r.splitCells(row.Content); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		pages = append(pages, rows)
	}
	return pages, nil
}

// splitCells joins glyph runs of one row into words and cells using the
// horizontal gap between consecutive runs
func (r *Reader) splitCells(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].X < sorted[b].X })

	var cells []string
	var cell strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cell.String()); s != "" {
			cells = append(cells, s)
		}
		cell.Reset()
	}

	for i, t := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			size := prev.FontSize
			if size <= 0 {
				size = defaultFontSize
			}
			gap := t.X - (prev.X + prev.W)
			switch {
			case gap > r.CellGap*size:
				flush()
			case gap > r.WordGap*size:
				cell.WriteByte(' ')
			}
		}
		cell.WriteString(t.S)
	}
	flush()
	return cells
}
