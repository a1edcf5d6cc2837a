package main

import (
	"fmt"
	"regexp"
	"unicode"
)

const (
	maxEmailLength       = 254
	minPasswordLength    = 8
	maxPasswordLength    = 72
	maxTitleLength       = 200
	maxDescriptionLength = 1000
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// checkEmail validates the address grammar shared by registration and login.
// Addresses are stored and compared exactly as given, no case folding.
func checkEmail(email string) error {
	if email == "" || len(email) > maxEmailLength || !emailRegexp.MatchString(email) {
		return fmt.Errorf("%w: email must be a valid email address", errInvalidInput)
	}
	return nil
}

// checkPasswordStrength enforces the registration password policy and names
// the first unmet rule.
func checkPasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", errWeakPassword, minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters long", errWeakPassword, maxPasswordLength)
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
	if !hasUpper {
		return fmt.Errorf("%w: password must contain at least one uppercase letter", errWeakPassword)
	}
	if !hasLower {
		return fmt.Errorf("%w: password must contain at least one lowercase letter", errWeakPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", errWeakPassword)
	}
	return nil
}

// checkLoginPassword applies the looser shape check used at login; strength
// rules only apply when a password is first set.
func checkLoginPassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password must be provided", errInvalidInput)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters long", errInvalidInput, maxPasswordLength)
	}
	return nil
}

func checkTaskInput(title, description string) error {
	if title == "" {
		return fmt.Errorf("%w: title must be provided", errInvalidInput)
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters long", errInvalidInput, maxTitleLength)
	}
	if len(description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters long", errInvalidInput, maxDescriptionLength)
	}
	return nil
}
