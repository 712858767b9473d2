// Package extract provides text extraction from PDF, DOCX, and plain text uploads.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/docvault/internal/models"
)

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// TypeFromFilename infers the declared type from the file-name suffix (case-insensitive).
// Returns models.ErrUnsupportedType for anything other than .pdf, .docx, or .txt.
func TypeFromFilename(name string) (models.DocType, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.DocTypePDF, nil
	case ".docx":
		return models.DocTypeDOCX, nil
	case ".txt":
		return models.DocTypeTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedType, filepath.Ext(name))
	}
}

// Extract reads the file at path and returns its text content according to t.
// On failure the returned text is always empty; callers treat "" as nothing to persist.
func (e *Extractor) Extract(path string, t models.DocType) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", models.ErrFileIO, filepath.Base(path), err)
	}
	text, err := e.ExtractBytes(content, t)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrExtraction, filepath.Base(path), err)
	}
	return text, nil
}

// ExtractBytes extracts text from content of the given type.
func (e *Extractor) ExtractBytes(content []byte, t models.DocType) (string, error) {
	switch t {
	case models.DocTypePDF:
		return extractPDF(content)
	case models.DocTypeDOCX:
		return extractDOCX(content)
	case models.DocTypeTXT:
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedType, t)
	}
}
