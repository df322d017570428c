package dataset

import "errors"

// SourceUnavailableError classifies a network/file fetch failure or a
// response that is not the expected JSON/CSV shape. The cause is preserved in
// the chain.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return "dataset: " + e.Source + " source unavailable: " + e.Err.Error()
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps a load failure for the named source.
func Unavailable(source string, err error) error {
	return &SourceUnavailableError{Source: source, Err: err}
}

// IsSourceUnavailable reports whether err is a source-unavailable failure.
func IsSourceUnavailable(err error) bool {
	var se *SourceUnavailableError
	return errors.As(err, &se)
}
