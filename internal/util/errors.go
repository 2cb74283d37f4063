package util

import "errors"

var (
	ErrNoExtractableText  = errors.New("no extractable text found in PDF")
	ErrInvalidChunkParams = errors.New("chunk size must be positive and overlap within [0, size)")
)
