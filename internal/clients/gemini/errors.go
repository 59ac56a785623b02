package gemini

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorKind is the closed set of failure categories callers may branch on.
// Classification of raw API errors happens only inside this package.
type ErrorKind int

const (
	KindUnavailable ErrorKind = iota
	KindRateLimited
	KindInputTooLong
	KindBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindInputTooLong:
		return "input_too_long"
	case KindBadResponse:
		return "bad_response"
	default:
		return "unavailable"
	}
}

type APIError struct {
	Kind ErrorKind
	Err  error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini api error (%v): %v", e.Kind, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind from a wrapped API error.
// Unknown errors are reported as unavailable.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnavailable
}

func classify(err error) *APIError {

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 429:
			return &APIError{Kind: KindRateLimited, Err: err}
		case gerr.Code == 400 && mentionsTokenLimit(gerr.Message):
			return &APIError{Kind: KindInputTooLong, Err: err}
		default:
			return &APIError{Kind: KindUnavailable, Err: err}
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota"):
		return &APIError{Kind: KindRateLimited, Err: err}
	case mentionsTokenLimit(msg):
		return &APIError{Kind: KindInputTooLong, Err: err}
	default:
		return &APIError{Kind: KindUnavailable, Err: err}
	}
}

func mentionsTokenLimit(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "token") &&
		(strings.Contains(msg, "exceed") || strings.Contains(msg, "limit") || strings.Contains(msg, "too long"))
}

func isInternalError(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 500
	}
	return strings.Contains(err.Error(), "Error 500")
}
