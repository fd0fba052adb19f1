// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// UploadError reports a missing, empty, oversized or otherwise unusable
// upload, or request parameters that select nothing to annotate.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload: %s: %v", e.Reason, e.Err)
	}
	return "upload: " + e.Reason
}

func (e *UploadError) Unwrap() error { return e.Err }

// DocumentParseError reports input that is not a readable PDF.
type DocumentParseError struct {
	Err error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("parsing document: %v", e.Err)
}

func (e *DocumentParseError) Unwrap() error { return e.Err }

// AnnotationWriteError reports a failure while inserting annotations or
// serializing the output PDF.
type AnnotationWriteError struct {
	Err error
}

func (e *AnnotationWriteError) Error() string {
	return fmt.Sprintf("writing annotations: %v", e.Err)
}

func (e *AnnotationWriteError) Unwrap() error { return e.Err }

// SuggestionError reports that a suggestion backend could not be reached
// or did not answer in time. Malformed model output is not an error; it
// becomes a notation annotation instead.
type SuggestionError struct {
	Backend string
	Err     error
}

func (e *SuggestionError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Backend, e.Err)
}

func (e *SuggestionError) Unwrap() error { return e.Err }
