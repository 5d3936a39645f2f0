package source

import (
	"errors"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrEmptyInput        = errors.New("empty input")
	ErrCorruptInput      = errors.New("corrupt input")
)

// InputError reports an input that cannot be turned into pages. It aborts
// the job before any recognition work starts.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(path string, err error) error {
	return &InputError{
		Path: path,
		Err:  err,
	}
}
