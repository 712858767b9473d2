package e2e

import (
	"testing"

	"github.com/hyperjump/docvault/internal/extract"
)

func TestWriteMinimalFile_AllExtensionsExtractable(t *testing.T) {
	e := extract.NewExtractor()
	sample := "E2E searchable content & more"
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := WriteMinimalFile(ext, sample)
			if err != nil {
				t.Fatalf("WriteMinimalFile: %v", err)
			}
			docType, err := extract.TypeFromFilename("sample" + ext)
			if err != nil {
				t.Fatal(err)
			}
			got, err := e.ExtractBytes(content, docType)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != sample {
				t.Errorf("extracted text %q, want %q", got, sample)
			}
		})
	}
}
