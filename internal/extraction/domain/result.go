package domain

// Provenance records which stage produced a patient name
type Provenance string

const (
	ProvenanceFilename    Provenance = "filename"
	ProvenanceTextLabel   Provenance = "text"
	ProvenanceNamedEntity Provenance = "ner"
	ProvenanceTableCell   Provenance = "tables"
)

// Result is the outcome of name extraction. An empty PatientName means the
// name is unknown; it is not an error.
type Result struct {
	PatientName string     `json:"patient_name"`
	Provenance  Provenance `json:"source"`
}

// Table is one grid of cells recovered from a page, row by row
type Table [][]string
