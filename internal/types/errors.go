package types

import "fmt"

// FetchError reports a failed or empty source download.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ProbeError reports a file that could not be inspected as media.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TransformError reports a failed cut/reframe or thumbnail step.
type TransformError struct {
	Step string
	Path string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s %s: %v", e.Step, e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

type StorageError struct {
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage put %s: %v", e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type TranscriptionError struct {
	URL string
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcribe %s: %v", e.URL, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// OracleError reports a failed, malformed or incomplete moment selection.
type OracleError struct {
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("moment selection: %v", e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }
