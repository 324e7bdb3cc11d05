package utils

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decisionRequest struct {
	Actor     string `validate:"required"`
	Rationale string `validate:"max=2000"`
	Decision  string `validate:"required,oneof=approved declined"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(decisionRequest{
			Actor:    "analyst-7",
			Decision: "approved",
		})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(decisionRequest{Decision: "approved"})
		require.Error(t, err)
		require.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Actor")
		assert.Equal(t, "Actor is required", fields["Actor"])
	})

	t.Run("oneof violation", func(t *testing.T) {
		err := ValidateStruct(decisionRequest{
			Actor:    "analyst-7",
			Decision: "maybe",
		})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields["Decision"], "must be one of")
	})
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID(uuid.New().String()))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID(""))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "Validation failed"}
	assert.Equal(t, "Validation failed", err.Error())
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{}))
	assert.False(t, IsValidationError(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
}

func TestGetValidationFields(t *testing.T) {
	fields := map[string]string{"Actor": "Actor is required"}
	err := &ValidationError{Message: "Validation failed", Fields: fields}

	assert.Equal(t, fields, GetValidationFields(err))
	assert.Nil(t, GetValidationFields(errors.New("plain")))
}
