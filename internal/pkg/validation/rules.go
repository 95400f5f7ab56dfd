package validation

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/scholarhub/internal/domain"
)

// Validation rule patterns
var (
	// Student number: 6 to 12 letters or digits
	StudentIDPattern = `^[A-Za-z0-9]{6,12}$`

	// Password min length
	PasswordMinLength = 8
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	StudentID *regexp.Regexp
}{
	StudentID: regexp.MustCompile(StudentIDPattern),
}

// RegisterGinValidators adds the custom binding tags used by request DTOs
// to gin's validator engine.
func RegisterGinValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return Register(v)
}

// Register installs the studentid and yearofstudy tags on v.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
		return CompiledPatterns.StudentID.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("yearofstudy", func(fl validator.FieldLevel) bool {
		return domain.YearOfStudy(fl.Field().String()).Valid()
	})
}

// PasswordProblem returns a human-readable reason when password is too weak,
// or "" when it is acceptable.
func PasswordProblem(password string) string {
	if len(password) < PasswordMinLength {
		return fmt.Sprintf("password must be at least %d characters long", PasswordMinLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return "password must contain at least one letter"
	}
	if !hasDigit {
		return "password must contain at least one digit"
	}
	return ""
}
