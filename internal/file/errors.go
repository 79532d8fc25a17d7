package file

import "errors"

var (
	// ErrFileNotFound signals that the file could not be located or the
	// caller has no access to it.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileTooLarge signals that the upload exceeds configured limits.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidType is returned for a type filter outside the fixed set.
	ErrInvalidType = errors.New("invalid file type")
)
