package media

import (
	"errors"
	"fmt"
)

// Extraction error kinds. Every error returned by Extract is an
// *ExtractionError that matches exactly one of these with errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptFile       = errors.New("corrupt file")
	ErrIO                = errors.New("i/o error")
)

// ExtractionError reports why metadata could not be extracted from a file.
type ExtractionError struct {
	Path string
	Kind error
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newExtractionError(path string, kind, err error) *ExtractionError {
	return &ExtractionError{Path: path, Kind: kind, Err: err}
}

// KindName returns a short label for an extraction error, suitable for
// metrics and scan summaries.
func KindName(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported"
	case errors.Is(err, ErrCorruptFile):
		return "corrupt"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}
