package domain

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Artifact is a report materialized on local disk. It is owned by exactly one
// processing step and must be released on every exit path.
type Artifact struct {
	Path     string
	Filename string
}

// NewArtifact writes data to a fresh file under dir
func NewArtifact(dir, filename string, data []byte) (*Artifact, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "rep_"+uuid.New().String()+".pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	return &Artifact{Path: path, Filename: filename}, nil
}

// Read returns the artifact bytes
func (a *Artifact) Read() ([]byte, error) {
	return os.ReadFile(a.Path)
}

// Release deletes the backing file. Releasing twice is not an error.
func (a *Artifact) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
