package extract

import (
	"errors"
	"unicode/utf8"
)

var errInvalidUTF8 = errors.New("text is not valid UTF-8")

// extractPlain returns content verbatim. Content that is not valid UTF-8 is
// rejected rather than repaired.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errInvalidUTF8
	}
	return string(content), nil
}
