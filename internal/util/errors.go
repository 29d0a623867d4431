package util

import "errors"

var (
	ErrNoExtractableText = errors.New("no extractable text found in PDF")
	ErrBundleTooLarge    = errors.New("document bundle exceeds size limit")
	ErrCacheCollision    = errors.New("cache key collision with different content")
)
