package blizzard

import (
	"blizzard-api/internal/common/errors"
)

// Error is the error type returned by every operation. Use errors.As to inspect it, or
// errors.Is with the sentinels below to match by kind.
type Error = errors.AppError

// ErrorType names an error kind.
type ErrorType = errors.ErrorType

// Sentinels for errors.Is.
var (
	ErrMissingParameter = errors.ErrMissingParameter
	ErrInvalidRegion    = errors.ErrInvalidRegion
	ErrInvalidLocale    = errors.ErrInvalidLocale
	ErrConfig           = errors.ErrConfig
	ErrToken            = errors.ErrToken
	ErrBadRequest       = errors.ErrBadRequest
	ErrForbidden        = errors.ErrForbidden
	ErrNotFound         = errors.ErrNotFound
	ErrRateLimit        = errors.ErrRateLimit
	ErrServer           = errors.ErrServer
)

// ErrClientClosed is returned by calls made after Close.
var ErrClientClosed = errors.ValidationError("client is closed").WithCode("client_closed")

// AsError returns the *Error in err's chain.
func AsError(err error) (*Error, bool) {
	return errors.As(err)
}
