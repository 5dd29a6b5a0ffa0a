package handlers

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taggedQuery struct {
	Day  string `form:"day" binding:"required,ymd"`
	Cow  string `json:"cowId" binding:"omitempty,objectid"`
	Skip string `json:"-"`
}

func TestRegisterValidators(t *testing.T) {
	assert.NotPanics(t, RegisterValidators)
	assert.NotPanics(t, RegisterValidators)

	require.NoError(t, binding.Validator.ValidateStruct(taggedQuery{Day: "2025-01-31"}))

	err := binding.Validator.ValidateStruct(taggedQuery{Day: "31/01/2025", Cow: "nope"})
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 2)
	assert.Equal(t, "day", verrs[0].Field())
	assert.Equal(t, "day must be YYYY-MM-DD", describe(verrs[0]))
	assert.Equal(t, "cowId", verrs[1].Field())
}

func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	v := validator.New()
	assert.Panics(t, func() {
		mustRegister(v, "", func(validator.FieldLevel) bool { return true })
	})
}
