// Package processing holds the business logic of the course generation
// pipeline: metadata validation, module content parsing and repair, video
// attachment, dialogue parsing and podcast synthesis.
package processing

import "fmt"

// MalformedGenerationError reports a generation response that failed
// structural validation (missing fields, too few modules or chunks).
type MalformedGenerationError struct {
	Reason string
}

func (e *MalformedGenerationError) Error() string {
	return fmt.Sprintf("malformed generation response: %s", e.Reason)
}

// TransientServiceError wraps a third-party call failure at the transport or
// quota layer. Podcast and video search degrade gracefully on it; the primary
// content-generation path propagates it.
type TransientServiceError struct {
	Service string
	Err     error
}

func (e *TransientServiceError) Error() string {
	return fmt.Sprintf("%s service error: %v", e.Service, e.Err)
}

func (e *TransientServiceError) Unwrap() error {
	return e.Err
}
