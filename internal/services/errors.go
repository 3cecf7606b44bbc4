package services

import "errors"

// Common service errors
var (
	ErrSkuNotFound = errors.New("sku not found")
	ErrFetchFailed = errors.New("fetch failed")
)
