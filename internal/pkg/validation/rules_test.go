package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	StudentID   string   `validate:"required,studentid"`
	YearOfStudy string   `validate:"required,yearofstudy"`
	Years       []string `validate:"omitempty,dive,yearofstudy"`
}

func TestRegister_CustomTags(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	assert.NoError(t, v.Struct(profile{StudentID: "20231234", YearOfStudy: "graduate", Years: []string{"1", "4"}}))

	err := v.Struct(profile{StudentID: "12-34", YearOfStudy: "5", Years: []string{"phd"}})
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}

func TestRegisterGinValidators(t *testing.T) {
	require.NoError(t, RegisterGinValidators())

	type registration struct {
		StudentID   string `binding:"required,studentid"`
		YearOfStudy string `binding:"required,yearofstudy"`
	}
	assert.NoError(t, binding.Validator.ValidateStruct(registration{StudentID: "A1B2C3", YearOfStudy: "2"}))
	assert.Error(t, binding.Validator.ValidateStruct(registration{StudentID: "A1B2C3", YearOfStudy: "sophomore"}))
}

func TestPasswordProblem(t *testing.T) {
	assert.NotEmpty(t, PasswordProblem("short1"))
	assert.NotEmpty(t, PasswordProblem("onlyletters"))
	assert.NotEmpty(t, PasswordProblem("1234567890"))
	assert.Empty(t, PasswordProblem("secret123"))
}
