package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name: "basic error",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "configuration is invalid",
			},
			want: "config: configuration is invalid",
		},
		{
			name: "error with code",
			appError: &AppError{
				Type:    ErrTypeConfig,
				Message: "no configuration for wow/pets",
				Code:    "config_not_found",
			},
			want: "config: no configuration for wow/pets: code=config_not_found",
		},
		{
			name:     "upstream error with status and url",
			appError: NotFoundError("resource").WithResponse(404, "https://example.com/achievement/999"),
			want:     "not_found: resource not found: status=404: url=https://example.com/achievement/999",
		},
		{
			name:     "rate limit with retry after",
			appError: RateLimitError("rate limited", 60*time.Second).WithResponse(429, ""),
			want:     "rate_limit: rate limited: status=429: retry after 60 seconds",
		},
		{
			name:     "missing parameter lists required params",
			appError: MissingParameterError("missing required parameter", "achievement_id", []string{"region", "locale", "achievement_id"}),
			want:     "missing_parameter: missing required parameter: field=achievement_id: required=region, locale, achievement_id",
		},
		{
			name:     "invalid region lists valid codes",
			appError: InvalidRegionError("usa", []string{"us", "eu", "kr"}),
			want:     "invalid_region: invalid region: field=region: invalid value=usa: valid=us, eu, kr",
		},
		{
			name: "error with cause and sorted context",
			appError: &AppError{
				Type:    ErrTypeInternal,
				Message: "internal system error",
				Cause:   errors.New("panic recovered"),
				Context: map[string]interface{}{
					"method": "get_achievement",
					"game":   "wow",
				},
			},
			want: "internal: internal system error: cause=panic recovered: context={game=wow, method=get_achievement}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	appError := ServerError("upstream unavailable", cause)

	assert.Equal(t, cause, appError.Unwrap())
	assert.True(t, errors.Is(appError, cause))
}

func TestAppError_IsMatchesSentinelsByType(t *testing.T) {
	wrapped := fmt.Errorf("calling get_achievement: %w", NotFoundError("achievement"))

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrServer))
	assert.False(t, errors.Is(NotFoundError("a"), NotFoundError("a")), "only message-less sentinels match by type")
}

func TestAppError_RetryHelpers(t *testing.T) {
	tests := []struct {
		err         *AppError
		shouldRetry bool
		rateLimited bool
	}{
		{RateLimitError("rate limited", 0), true, true},
		{ServerError("server error", nil), true, false},
		{NotFoundError("achievement"), false, false},
		{BadRequestError("bad request"), false, false},
		{TokenError("invalid token", nil), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.shouldRetry, tt.err.ShouldRetry())
			assert.Equal(t, tt.rateLimited, tt.err.IsRateLimited())
		})
	}
}

func TestIsTypeAndGetType(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ForbiddenError("no access"))

	assert.True(t, IsType(wrapped, ErrTypeForbidden))
	assert.False(t, IsType(wrapped, ErrTypeNotFound))
	assert.False(t, IsType(nil, ErrTypeForbidden))
	assert.False(t, IsType(errors.New("plain"), ErrTypeForbidden))

	assert.Equal(t, ErrTypeForbidden, GetType(wrapped))
	assert.Equal(t, ErrTypeInternal, GetType(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetType(nil))
}

func TestConstructorsCopyLists(t *testing.T) {
	required := []string{"region", "id"}
	err := MissingParameterError("missing", "id", required)
	required[0] = "mutated"

	assert.Equal(t, []string{"region", "id"}, err.RequiredParams)
}

func TestWithContext(t *testing.T) {
	err := ConfigError("bad pattern").WithContext("pattern", "get_by_id").WithCode("unknown_pattern")

	assert.Equal(t, "get_by_id", err.Context["pattern"])
	assert.Equal(t, "unknown_pattern", err.Code)
}
