package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError reports a required-field check that failed before any
// request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func validEmail(field, value string) error {
	if err := required(field, value); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(value); err != nil {
		return &ValidationError{Field: field, Message: "is not a valid address"}
	}
	return nil
}

// ValidateLogin checks the login form.
func ValidateLogin(email, password string) error {
	if err := validEmail("email", email); err != nil {
		return err
	}
	return required("password", password)
}
