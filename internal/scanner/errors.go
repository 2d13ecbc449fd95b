package scanner

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the input path does not exist.
	ErrNotFound = errors.New("file does not exist")

	// ErrNotAFile indicates the input path is a directory or another
	// non-regular file.
	ErrNotAFile = errors.New("not a regular file")

	// ErrRead covers open, read and decode failures, including content that
	// is not valid UTF-8 text.
	ErrRead = errors.New("failed to read file")
)

type Kind string

const (
	KindNotFound  Kind = "not_found"
	KindNotAFile  Kind = "not_a_file"
	KindReadError Kind = "read_error"
)

// FileError is a per-file failure. It never aborts the batch.
type FileError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", e.Path, e.sentinel(), e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func (e *FileError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *FileError) sentinel() error {
	switch e.Kind {
	case KindNotFound:
		return ErrNotFound
	case KindNotAFile:
		return ErrNotAFile
	default:
		return ErrRead
	}
}

func newFileError(path string, kind Kind, err error) *FileError {
	return &FileError{Path: path, Kind: kind, Err: err}
}
