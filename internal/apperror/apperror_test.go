package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("list vehicles: %w", Network(cause))

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.False(t, errors.Is(err, ErrSessionExpired))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestRequestFailed_DefaultMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"server message", "db down", "db down"},
		{"empty message", "", "request failed"},
		{"blank message", "   ", "request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequestFailed(500, tt.message)
			assert.Equal(t, tt.want, err.Message)
			assert.Equal(t, 500, err.Status)
			assert.True(t, errors.Is(err, ErrRequestFailed))
		})
	}
}

func TestValidation_ErrorListsFields(t *testing.T) {
	err := Validation(
		FieldError{Field: "refillAmount", Message: "must not be negative"},
		FieldError{Field: "date", Message: "is required"},
	)
	assert.Equal(t, "validation failed: refillAmount must not be negative; date is required", err.Error())
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, "UnknownError", Kind(0).String())
	assert.Equal(t, "SessionExpired", KindSessionExpired.String())
}
