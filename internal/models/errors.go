package models

import "errors"

// Sentinel errors shared by every layer. Shells map them with errors.Is.
var (
	ErrExtraction      = errors.New("extraction failed")
	ErrEncryption      = errors.New("encryption failed")
	ErrStorageWrite    = errors.New("storage write failed")
	ErrStorageRead     = errors.New("storage read failed")
	ErrFileIO          = errors.New("file i/o failed")
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrEmptyContent    = errors.New("no text extracted")
	ErrInvalidUser     = errors.New("invalid user")
)
