package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wordprocessingNS is the WordprocessingML namespace of w:* elements.
const wordprocessingNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}

// readZipFile returns the contents of the named entry, or nil if it is absent.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// extractDOCX extracts text from .docx bytes. Only paragraphs that sit directly
// in the document body are read; tables, text boxes and alternate content are
// skipped. Paragraph text is concatenated in document order with no separator;
// inside a paragraph w:t runs are joined verbatim, w:tab yields a tab and a
// text-wrapping w:br or w:cr a newline.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	return paragraphText(docXML)
}

func isWordElement(name xml.Name, local string) bool {
	// Documents without a namespace declaration leave the raw prefix in Space.
	return name.Local == local && (name.Space == wordprocessingNS || name.Space == "w")
}

// isBodyRun reports whether path, from the root element down, names a run of a
// body-level paragraph, either directly or inside a hyperlink.
func isBodyRun(path []xml.Name) bool {
	if len(path) < 4 ||
		!isWordElement(path[0], "document") ||
		!isWordElement(path[1], "body") ||
		!isWordElement(path[2], "p") {
		return false
	}
	switch len(path) {
	case 4:
		return isWordElement(path[3], "r")
	case 5:
		return isWordElement(path[3], "hyperlink") && isWordElement(path[4], "r")
	}
	return false
}

// isLineBreak reports whether a w:br ends a line. Page and column breaks add no text.
func isLineBreak(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "type" {
			return a.Value == "" || a.Value == "textWrapping"
		}
	}
	return true
}

func paragraphText(docXML []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(docXML))
	var b strings.Builder
	var path []xml.Name
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("extract DOCX: parse document: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if isBodyRun(path) {
				switch {
				case isWordElement(el.Name, "tab"):
					b.WriteByte('\t')
				case isWordElement(el.Name, "br") && isLineBreak(el), isWordElement(el.Name, "cr"):
					b.WriteByte('\n')
				}
			}
			path = append(path, el.Name)
		case xml.EndElement:
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		case xml.CharData:
			if n := len(path); n > 0 && isWordElement(path[n-1], "t") && isBodyRun(path[:n-1]) {
				b.Write(el)
			}
		}
	}
	return b.String(), nil
}
