package users

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/retrostore/retrostore-backend/pkg/errors"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 150
	MinPasswordLength = 8
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
	fieldValidator  = validator.New()
)

// NormalizeUsername trims and checks length and alphabet.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength || !usernamePattern.MatchString(username) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid username").
			WithDetails(map[string]any{"username": "3-150 characters of letters, digits, '_', '.' or '-'"})
	}
	return username, nil
}

// NormalizeEmail trims, lowercases and checks the address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := fieldValidator.Var(email, "required,email"); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	return email, nil
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	return nil
}
