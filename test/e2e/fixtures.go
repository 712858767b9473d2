package e2e

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
)

// SupportedFileExtensions is the list of file extensions used in E2E file-based tests.
// PDF is not generated here (no minimal PDF with extractable text); the extractor
// tests cover it.
var SupportedFileExtensions = []string{".txt", ".docx"}

// WriteMinimalFile returns the bytes of a minimal file of the given extension holding text.
func WriteMinimalFile(ext, text string) ([]byte, error) {
	switch ext {
	case ".docx":
		return minimalDocx(text)
	default:
		return []byte(text), nil
	}
}

func minimalDocx(text string) ([]byte, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create("word/document.xml")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + escaped.String() + `</w:t></w:r></w:p></w:body></w:document>`)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
