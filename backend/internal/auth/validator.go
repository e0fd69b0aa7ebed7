package auth

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "soceyo/backend/pkg/errors"
)

// PasswordRules is the message shown when a password is too weak
const PasswordRules = "Password must be at least 8 characters and include an uppercase letter, a lowercase letter, a number and a symbol."

var validate = validator.New()

// RegisterRequest is the input accepted by registration
type RegisterRequest struct {
	Username string `json:"username" binding:"required" validate:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required" validate:"required,email,max=254"`
	Password string `json:"password" binding:"required" validate:"required,min=8"`
}

// ValidateRegister checks field formats and password strength
func ValidateRegister(req RegisterRequest) error {
	if err := validate.Struct(req); err != nil {
		return apperrors.NewValidation("invalid registration request", err)
	}
	return ValidatePassword(req.Password)
}

// ValidatePassword enforces the password strength rules
func ValidatePassword(password string) error {
	if len([]rune(password)) < 8 || !isPasswordComplex(password) {
		return apperrors.NewValidation(PasswordRules, nil)
	}
	return nil
}

func isPasswordComplex(s string) bool {
	var hasUpper, hasLower, hasNumber, hasSymbol bool
	for _, char := range s {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case !unicode.IsLetter(char) && !unicode.IsDigit(char):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSymbol
}
