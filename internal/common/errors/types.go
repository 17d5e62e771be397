package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeValidation represents generic input validation errors
	ErrTypeValidation ErrorType = "validation"
	// ErrTypeMissingParameter represents a required parameter that was not supplied
	ErrTypeMissingParameter ErrorType = "missing_parameter"
	// ErrTypeInvalidRegion represents an unknown region code
	ErrTypeInvalidRegion ErrorType = "invalid_region"
	// ErrTypeInvalidLocale represents a locale that is not served by the region
	ErrTypeInvalidLocale ErrorType = "invalid_locale"
	// ErrTypeConfig represents endpoint configuration errors
	ErrTypeConfig ErrorType = "config"
	// ErrTypeToken represents OAuth token acquisition or rejection errors
	ErrTypeToken ErrorType = "token"
	// ErrTypeBadRequest represents 4xx responses without a more specific kind
	ErrTypeBadRequest ErrorType = "bad_request"
	// ErrTypeForbidden represents 403 responses
	ErrTypeForbidden ErrorType = "forbidden"
	// ErrTypeNotFound represents 404 responses and missing resources
	ErrTypeNotFound ErrorType = "not_found"
	// ErrTypeRateLimit represents 429 responses
	ErrTypeRateLimit ErrorType = "rate_limit"
	// ErrTypeServer represents 5xx responses and exhausted transient failures
	ErrTypeServer ErrorType = "server"
	// ErrTypeConnection represents a single transport-level failure
	ErrTypeConnection ErrorType = "connection"
	// ErrTypeInternal represents internal system errors
	ErrTypeInternal ErrorType = "internal"
)

// Sentinels for errors.Is matching by type.
var (
	ErrMissingParameter = &AppError{Type: ErrTypeMissingParameter}
	ErrInvalidRegion    = &AppError{Type: ErrTypeInvalidRegion}
	ErrInvalidLocale    = &AppError{Type: ErrTypeInvalidLocale}
	ErrConfig           = &AppError{Type: ErrTypeConfig}
	ErrToken            = &AppError{Type: ErrTypeToken}
	ErrBadRequest       = &AppError{Type: ErrTypeBadRequest}
	ErrForbidden        = &AppError{Type: ErrTypeForbidden}
	ErrNotFound         = &AppError{Type: ErrTypeNotFound}
	ErrRateLimit        = &AppError{Type: ErrTypeRateLimit}
	ErrServer           = &AppError{Type: ErrTypeServer}
)

// AppError represents a structured client error
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`

	// Upstream response details
	StatusCode int           `json:"status_code,omitempty"`
	RequestURL string        `json:"request_url,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	// Validation details
	Field          string      `json:"field,omitempty"`
	InvalidValue   interface{} `json:"invalid_value,omitempty"`
	RequiredParams []string    `json:"required_params,omitempty"`
	ValidValues    []string    `json:"valid_values,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	parts := []string{string(e.Type), e.Message}

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.RequestURL != "" {
		parts = append(parts, fmt.Sprintf("url=%s", e.RequestURL))
	}
	if e.RetryAfter > 0 {
		parts = append(parts, fmt.Sprintf("retry after %d seconds", int(e.RetryAfter/time.Second)))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.InvalidValue != nil {
		parts = append(parts, fmt.Sprintf("invalid value=%v", e.InvalidValue))
	}
	if len(e.RequiredParams) > 0 {
		parts = append(parts, fmt.Sprintf("required=%s", strings.Join(e.RequiredParams, ", ")))
	}
	if len(e.ValidValues) > 0 {
		parts = append(parts, fmt.Sprintf("valid=%s", strings.Join(e.ValidValues, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Cause))
	}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		contextParts := make([]string, 0, len(keys))
		for _, k := range keys {
			contextParts = append(contextParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context={%s}", strings.Join(contextParts, ", ")))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same type, so the package sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == ""
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithResponse attaches the upstream status code and request URL
func (e *AppError) WithResponse(statusCode int, requestURL string) *AppError {
	e.StatusCode = statusCode
	e.RequestURL = requestURL
	return e
}

// ShouldRetry reports whether the failure is transient from the caller's point of view.
func (e *AppError) ShouldRetry() bool {
	return e.Type == ErrTypeRateLimit || e.Type == ErrTypeServer || e.Type == ErrTypeConnection
}

// IsRateLimited reports whether the upstream rejected the call for rate limiting.
func (e *AppError) IsRateLimited() bool {
	return e.Type == ErrTypeRateLimit
}

// ValidationError creates a new validation error
func ValidationError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeValidation,
		Message: msg,
	}
}

// MissingParameterError creates an error listing every required parameter of the operation
func MissingParameterError(msg string, field string, required []string) *AppError {
	return &AppError{
		Type:           ErrTypeMissingParameter,
		Message:        msg,
		Field:          field,
		RequiredParams: append([]string(nil), required...),
	}
}

// InvalidRegionError creates an error listing the accepted region codes
func InvalidRegionError(value string, valid []string) *AppError {
	return &AppError{
		Type:         ErrTypeInvalidRegion,
		Message:      "invalid region",
		Field:        "region",
		InvalidValue: value,
		ValidValues:  append([]string(nil), valid...),
	}
}

// InvalidLocaleError creates an error listing the locales served by the region
func InvalidLocaleError(value string, valid []string) *AppError {
	return &AppError{
		Type:         ErrTypeInvalidLocale,
		Message:      "invalid locale",
		Field:        "locale",
		InvalidValue: value,
		ValidValues:  append([]string(nil), valid...),
	}
}

// ConfigError creates a new configuration error
func ConfigError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: msg,
	}
}

// ConfigNotFoundError creates the error returned when no configuration exists for a key
func ConfigNotFoundError(game, apiType string) *AppError {
	return &AppError{
		Type:    ErrTypeConfig,
		Message: fmt.Sprintf("no configuration for %s/%s", game, apiType),
		Code:    "config_not_found",
	}
}

// TokenError creates a new token error
func TokenError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeToken,
		Message: msg,
		Cause:   cause,
	}
}

// BadRequestError creates a new bad request error
func BadRequestError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeBadRequest,
		Message: msg,
	}
}

// ForbiddenError creates a new forbidden error
func ForbiddenError(msg string) *AppError {
	return &AppError{
		Type:    ErrTypeForbidden,
		Message: msg,
	}
}

// NotFoundError creates a new not found error
func NotFoundError(resource string) *AppError {
	return &AppError{
		Type:    ErrTypeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// RateLimitError creates a new rate limit error
func RateLimitError(msg string, retryAfter time.Duration) *AppError {
	return &AppError{
		Type:       ErrTypeRateLimit,
		Message:    msg,
		RetryAfter: retryAfter,
	}
}

// ServerError creates a new server error
func ServerError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeServer,
		Message: msg,
		Cause:   cause,
	}
}

// ConnectionError creates a new connection error
func ConnectionError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeConnection,
		Message: msg,
		Cause:   cause,
	}
}

// InternalError creates a new internal error
func InternalError(msg string, cause error) *AppError {
	return &AppError{
		Type:    ErrTypeInternal,
		Message: msg,
		Cause:   cause,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	if !ok {
		return false
	}
	return appErr.Type == errType
}

// GetType returns the error type if it's an AppError, otherwise returns ErrTypeInternal
func GetType(err error) ErrorType {
	if err == nil {
		return ""
	}

	appErr, ok := As(err)
	if !ok {
		return ErrTypeInternal
	}

	return appErr.Type
}
