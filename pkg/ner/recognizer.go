// Package ner wraps a statistical named-entity recognizer for person names.
package ner

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

const personLabel = "PERSON"

// Recognizer finds PERSON entities with prose's averaged-perceptron model.
// The model is only read during tagging, so one Recognizer can serve
// concurrent sessions.
type Recognizer struct {
	model *prose.Model
}

// NewRecognizer loads the model bundled with prose. Loading is slow; create
// one Recognizer and share it.
func NewRecognizer() *Recognizer {
	return &Recognizer{model: prose.ModelFromData("en")}
}

// PersonNames returns person entities in document order. Errors yield nil.
func (r *Recognizer) PersonNames(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := prose.NewDocument(text,
		prose.WithSegmentation(false),
		prose.UsingModel(r.model))
	if err != nil {
		return nil
	}
	var names []string
	for _, ent := range doc.Entities() {
		if ent.Label == personLabel {
			names = append(names, ent.Text)
		}
	}
	return names
}
