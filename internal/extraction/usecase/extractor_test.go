package usecase

import (
	"errors"
	"testing"

	"report-intake/internal/extraction/domain"

	"go.uber.org/zap/zaptest"
)

type fakeReader struct {
	pages    []string
	pagesErr error
	tables   []domain.Table
	panics   bool
	calls    int
}

func (f *fakeReader) PageTexts(content []byte) ([]string, error) {
	f.calls++
	if f.panics {
		panic("malformed xref")
	}
	return f.pages, f.pagesErr
}

func (f *fakeReader) Tables(content []byte) ([]domain.Table, error) {
	f.calls++
	if f.panics {
		panic("malformed xref")
	}
	if f.tables == nil {
		return nil, errors.New("no tables")
	}
	return f.tables, nil
}

type fakeRecognizer struct {
	names []string
}

func (f *fakeRecognizer) PersonNames(text string) []string {
	return f.names
}

func TestExtractLabBypassIgnoresContent(t *testing.T) {
	const filename = "125090547_Ramesh_Kumar_WL.pdf"

	first := &fakeReader{pages: []string{"Patient Name: SOMEONE ELSE"}}
	second := &fakeReader{pages: []string{"Name: ANOTHER PERSON"}}

	r1 := NewExtractor(first, nil, zaptest.NewLogger(t)).Extract([]byte("pdf one"), filename)
	r2 := NewExtractor(second, nil, zaptest.NewLogger(t)).Extract([]byte("pdf two"), filename)

	want := domain.Result{PatientName: "Ramesh Kumar", Provenance: domain.ProvenanceFilename}
	if r1 != want || r2 != want {
		t.Errorf("Expected %+v for both documents, got %+v and %+v", want, r1, r2)
	}
	if first.calls != 0 || second.calls != 0 {
		t.Errorf("Expected no content inspection, got %d and %d reader calls", first.calls, second.calls)
	}
}

func TestExtractFromLabel(t *testing.T) {
	reader := &fakeReader{pages: []string{
		"ACME DIAGNOSTICS\nPatient Name: MR. SUNIL K. VERMA (45Y/M)\nSample Collected: 12/03/2024",
	}}
	got := NewExtractor(reader, nil, zaptest.NewLogger(t)).Extract([]byte("%PDF"), "report.pdf")

	want := domain.Result{PatientName: "Sunil K Verma", Provenance: domain.ProvenanceTextLabel}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractLaterMatchWhenFirstCleansEmpty(t *testing.T) {
	reader := &fakeReader{pages: []string{
		"Patient Name: 12345678\nName: Kavya Iyer\n",
	}}
	got := NewExtractor(reader, nil, zaptest.NewLogger(t)).Extract([]byte("%PDF"), "x.pdf")
	if got.PatientName != "Kavya Iyer" || got.Provenance != domain.ProvenanceTextLabel {
		t.Errorf("Expected Kavya Iyer from text, got %+v", got)
	}
}

func TestExtractTriesEveryMatchOfALabel(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"second occurrence", "Patient Name: 12345678\nPatient Name: Kavya Iyer\n"},
		{"third occurrence", "Patient Name: 12345678\nPatient Name: 98765432\nPatient Name: KAVYA IYER\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{pages: []string{tt.text}}
			// the recognizer answers only if the label stage gives up
			recognizer := &fakeRecognizer{names: []string{"Meera Nair"}}

			got := NewExtractor(reader, recognizer, zaptest.NewLogger(t)).Extract([]byte("%PDF"), "x.pdf")

			want := domain.Result{PatientName: "Kavya Iyer", Provenance: domain.ProvenanceTextLabel}
			if got != want {
				t.Errorf("Expected %+v, got %+v", want, got)
			}
		})
	}
}

func TestExtractFromNamedEntity(t *testing.T) {
	reader := &fakeReader{pages: []string{"Thank you for choosing us today and please visit again"}}
	recognizer := &fakeRecognizer{names: []string{"ABCDEFGH12", "Meera Nair"}}

	got := NewExtractor(reader, recognizer, zaptest.NewLogger(t)).Extract([]byte("%PDF"), "x.pdf")

	want := domain.Result{PatientName: "Meera Nair", Provenance: domain.ProvenanceNamedEntity}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractFromLineScan(t *testing.T) {
	reader := &fakeReader{pages: []string{
		"HAEMOGLOBIN 13.5 g/dL reference range applies here always\nROHIT SHARMA\n",
	}}
	got := NewExtractor(reader, nil, zaptest.NewLogger(t)).Extract([]byte("%PDF"), "x.pdf")

	want := domain.Result{PatientName: "Rohit Sharma", Provenance: domain.ProvenanceTextLabel}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractFromTables(t *testing.T) {
	reader := &fakeReader{
		pagesErr: errors.New("no text layer"),
		tables: []domain.Table{{
			{"Test", "Value"},
			{"", "Patient Name: RAVI TEJA"},
		}},
	}
	got := NewExtractor(reader, nil, zaptest.NewLogger(t)).Extract([]byte("%PDF"), "x.pdf")

	want := domain.Result{PatientName: "Ravi Teja", Provenance: domain.ProvenanceTableCell}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractFallsBackToFilename(t *testing.T) {
	tests := []struct {
		name     string
		reader   *fakeReader
		filename string
		want     string
	}{
		{"decoder errors", &fakeReader{pagesErr: errors.New("encrypted")}, "anita-sharma-report.pdf", "Anita Sharma"},
		{"decoder panics", &fakeReader{panics: true}, "anita-sharma-report.pdf", "Anita Sharma"},
		{"nothing anywhere", &fakeReader{pagesErr: errors.New("empty")}, "12345.pdf", ""},
	}
	for _, tt := range tests {
		got := NewExtractor(tt.reader, nil, zaptest.NewLogger(t)).Extract([]byte("junk"), tt.filename)
		if got.PatientName != tt.want || got.Provenance != domain.ProvenanceFilename {
			t.Errorf("%s: expected (%q, filename), got %+v", tt.name, tt.want, got)
		}
	}
}
