// Package models defines core data structures for documents, history records, and search results.
package models

// Document is a stored upload. Content always holds ciphertext, never plaintext.
type Document struct {
	ID       int64  `json:"id" db:"id"`
	Filename string `json:"filename" db:"filename"`
	Content  string `json:"-" db:"content"`
}

// DocType is the declared type of an uploaded file.
type DocType string

const (
	DocTypePDF  DocType = "pdf"
	DocTypeDOCX DocType = "docx"
	DocTypeTXT  DocType = "txt"
)

// SupportedExtensions lists the upload suffixes accepted by the ingest path.
var SupportedExtensions = []string{".pdf", ".docx", ".txt"}
