package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrTooManyFiles indicates the attachment cap was exceeded
	ErrTooManyFiles = errors.New("too many files")
	// ErrInvalidCategory indicates an unknown contract category tag
	ErrInvalidCategory = errors.New("invalid contract category")
	// ErrUnsupportedFile indicates a file type the uploader refuses
	ErrUnsupportedFile = errors.New("unsupported file type")
)
