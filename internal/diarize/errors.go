package diarize

import "fmt"

// UploadError means the audio bytes never reached the provider.
type UploadError struct {
	Message string
	Err     error
}

func (e *UploadError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// TranscriptionError means the remote job failed, could not be started or
// checked, or polling gave up. Timeout marks the gave-up case so the
// caller can report it separately from a provider-side failure.
type TranscriptionError struct {
	Message string
	Timeout bool
	Err     error
}

func (e *TranscriptionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// ProviderError means the provider answered outside its own contract:
// unparseable bodies, missing fields, or a completed job with no segments.
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
