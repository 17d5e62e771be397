package validation

import (
	"testing"

	"blizzard-api/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Region string `env:"BLIZZARD_REGION" validate:"required,region"`
	Locale string `env:"BLIZZARD_LOCALE" validate:"omitempty,locale"`
	Burst  int    `json:"burst" validate:"gte=1"`
	Mode   string `validate:"oneof=none local redis"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   sample
		wantErr string
		field   string
	}{
		{
			name:  "valid",
			input: sample{Region: "us", Locale: "en_US", Burst: 1, Mode: "none"},
		},
		{
			name:    "region is case-insensitive but must exist",
			input:   sample{Region: "mars", Burst: 1, Mode: "none"},
			wantErr: "field 'BLIZZARD_REGION' must be one of: us, eu, kr, tw, cn",
			field:   "BLIZZARD_REGION",
		},
		{
			name:    "locale shape",
			input:   sample{Region: "EU", Locale: "english", Burst: 1, Mode: "local"},
			wantErr: "field 'BLIZZARD_LOCALE' must be a locale such as en_US",
			field:   "BLIZZARD_LOCALE",
		},
		{
			name:    "json name is used",
			input:   sample{Region: "us", Burst: 0, Mode: "redis"},
			wantErr: "field 'burst' must be at least 1",
			field:   "burst",
		},
		{
			name:    "oneof",
			input:   sample{Region: "us", Burst: 1, Mode: "memcached"},
			wantErr: "field 'Mode' must be one of: none local redis",
			field:   "Mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrTypeValidation, appErr.Type)
			assert.Equal(t, tt.wantErr, appErr.Message)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestValidateStruct_CombinesMessages(t *testing.T) {
	err := ValidateStruct(sample{Region: "", Burst: 0, Mode: "none"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed:")
	assert.Contains(t, err.Error(), "field 'BLIZZARD_REGION' is required")
	assert.Contains(t, err.Error(), "field 'burst' must be at least 1")
}

func TestValidateStructResult(t *testing.T) {
	result := ValidateStructResult(sample{Region: "us", Burst: 0, Mode: "x"})
	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 2)

	result = ValidateStructResult(sample{Region: "us", Burst: 2, Mode: "local"})
	assert.True(t, result.Valid)
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("kr", "region"))
	assert.Error(t, ValidateVar("zz", "region"))
	assert.NoError(t, ValidateVar("pt_BR", "locale"))
}
