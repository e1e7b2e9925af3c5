package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceType(t *testing.T) {
	for _, valid := range []string{"lunch", "dinner", "brunch"} {
		st, err := ParseServiceType(valid)
		require.NoError(t, err)
		assert.Equal(t, ServiceType(valid), st)
	}

	_, err := ParseServiceType("breakfast")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	_, err = ParseServiceType("")
	assert.Error(t, err)
}

func TestPredictionRequestValidate(t *testing.T) {
	valid := PredictionRequest{
		RestaurantID: "rest_001",
		ServiceDate:  time.Date(2025, time.January, 18, 0, 0, 0, 0, time.UTC),
		ServiceType:  ServiceDinner,
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.RestaurantID = ""
	assert.ErrorIs(t, missing.Validate(), ErrMissingRestaurantID)

	badType := valid
	badType.ServiceType = "supper"
	assert.ErrorIs(t, badType.Validate(), ErrInvalidServiceType)

	noDate := valid
	noDate.ServiceDate = time.Time{}
	assert.ErrorIs(t, noDate.Validate(), ErrInvalidServiceDate)
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ErrMissingRestaurantID))
	assert.True(t, IsValidationError(ErrInvalidServiceType))
	assert.True(t, IsValidationError(ErrInvalidServiceDate))
	assert.False(t, IsValidationError(assert.AnError))
	assert.False(t, IsValidationError(nil))
}
