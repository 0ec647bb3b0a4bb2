package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoBaseURL is returned by NewClient without a service address.
	ErrNoBaseURL = errors.New("service base URL not configured")
	// ErrTransport wraps failures where no response was received.
	ErrTransport = errors.New("request failed")
	// ErrService matches every *ServiceError.
	ErrService = errors.New("service reported failure")
	// ErrUnauthorized matches a *ServiceError caused by a rejected credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidResponse is returned when a response body is not a valid envelope.
	ErrInvalidResponse = errors.New("invalid API response")
)

// ServiceError is a response the service delivered with a failure
// discriminator or a non-2xx status.
type ServiceError struct {
	Status  int
	Code    *int
	Message string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != nil {
		return fmt.Sprintf("service error %d (status %d): %s", *e.Code, e.Status, msg)
	}
	return fmt.Sprintf("service error (status %d): %s", e.Status, msg)
}

// Is lets errors.Is match the package sentinels.
func (e *ServiceError) Is(target error) bool {
	switch target {
	case ErrService:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}
