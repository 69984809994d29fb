package model

import (
	"github.com/google/uuid"
)

// ErrorKind classifies an ErrorDescriptor.
type ErrorKind string

const (
	KindGeolocationDenied      ErrorKind = "geolocation_denied"
	KindGeolocationUnavailable ErrorKind = "geolocation_unavailable"
	KindGeolocationTimeout     ErrorKind = "geolocation_timeout"
	KindGeolocationUnknown     ErrorKind = "geolocation_unknown"
	KindNetworkFailure         ErrorKind = "network_failure"
	KindMalformedResponse      ErrorKind = "malformed_response"
	KindServiceError           ErrorKind = "service_error"
	KindConfiguration          ErrorKind = "configuration"
)

// Sentinel descriptors; errors.Is matches any descriptor of the same kind.
var (
	ErrGeolocationDenied      = &ErrorDescriptor{Kind: KindGeolocationDenied}
	ErrGeolocationUnavailable = &ErrorDescriptor{Kind: KindGeolocationUnavailable}
	ErrGeolocationTimeout     = &ErrorDescriptor{Kind: KindGeolocationTimeout}
	ErrGeolocationUnknown     = &ErrorDescriptor{Kind: KindGeolocationUnknown}
	ErrNetworkFailure         = &ErrorDescriptor{Kind: KindNetworkFailure}
	ErrMalformedResponse      = &ErrorDescriptor{Kind: KindMalformedResponse}
	ErrServiceError           = &ErrorDescriptor{Kind: KindServiceError}
	ErrConfiguration          = &ErrorDescriptor{Kind: KindConfiguration}
)

// ErrorDescriptor is the structured failure value returned by the resolver and
// the weather client, and accumulated in the application state.
type ErrorDescriptor struct {
	ID      string    `json:"id"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// NewError builds a descriptor with a fresh ID.
func NewError(kind ErrorKind, message string, cause error) *ErrorDescriptor {
	return &ErrorDescriptor{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: message,
		Err:     cause,
	}
}

func (e *ErrorDescriptor) Error() string {
	if e.Err != nil && e.Message != "" {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *ErrorDescriptor) Unwrap() error {
	return e.Err
}

func (e *ErrorDescriptor) Is(target error) bool {
	t, ok := target.(*ErrorDescriptor)
	return ok && t.Kind == e.Kind
}

// IsGeolocation reports whether the descriptor came from the coordinate resolver.
func (e *ErrorDescriptor) IsGeolocation() bool {
	switch e.Kind {
	case KindGeolocationDenied, KindGeolocationUnavailable, KindGeolocationTimeout, KindGeolocationUnknown:
		return true
	}
	return false
}
