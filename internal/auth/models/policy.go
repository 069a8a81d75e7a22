package models

import (
	"strings"
	"unicode"

	dErrors "casefile/pkg/domain-errors"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 12

// ValidatePassword enforces the account password policy. The returned
// error names the specific rule that failed; password policy is not a
// secret, so precise messages are fine here.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 12 characters long")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return dErrors.New(dErrors.CodeValidation, "password must contain an uppercase letter")
	case !hasLower:
		return dErrors.New(dErrors.CodeValidation, "password must contain a lowercase letter")
	case !hasDigit:
		return dErrors.New(dErrors.CodeValidation, "password must contain a digit")
	}
	return nil
}

// ValidateUsername rejects usernames that are empty after trimming.
// Anything that reaches the rate limiter should already have substance.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return dErrors.New(dErrors.CodeValidation, "username must not be blank")
	}
	return nil
}

// ValidateEmail applies a minimal shape check; full verification is the
// host application's concern.
func ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	at := strings.Index(trimmed, "@")
	if at < 1 || at == len(trimmed)-1 {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}
