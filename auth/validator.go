package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"chat-hub/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type RegisterRequest struct {
	Username string `validate:"required,min=3,max=32,alphanumunicode"`
	Password string `validate:"required,max=72"`
}

// PasswordPolicy holds the rules a new password must satisfy on top of
// the struct tags.
type PasswordPolicy struct {
	MinLength         int
	RequireComplexity bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 12, RequireComplexity: true}
}

// ValidateRegister returns ErrInvalidUsername or ErrInvalidPassword.
func (p PasswordPolicy) ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fe := range fieldErrors {
				if fe.Field() == "Username" {
					return fmt.Errorf("%w: %s failed on %q", errors.ErrInvalidUsername, fe.Field(), fe.Tag())
				}
			}
		}
		return fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	if utf8.RuneCountInString(req.Password) < p.MinLength {
		return fmt.Errorf("%w: at least %d characters", errors.ErrInvalidPassword, p.MinLength)
	}
	if p.RequireComplexity && !isPasswordComplex(req.Password) {
		return errors.ErrInvalidPassword
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
