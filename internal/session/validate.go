package session

import (
	"regexp"
	"strings"

	"github.com/Makepad-fr/tasker/internal/model"
)

var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldError is one invalid form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of a form, in form order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// Field returns the message for name, or "".
func (e *ValidationError) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

type validator struct {
	fields []FieldError
}

func (v *validator) check(field, msg string) {
	if msg != "" {
		v.fields = append(v.fields, FieldError{Field: field, Message: msg})
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// ValidateCredentials rejects a login form with a blank field.
func ValidateCredentials(c model.Credentials) error {
	var v validator
	if strings.TrimSpace(c.Email) == "" {
		v.check("email", "Email is required")
	}
	if c.Password == "" {
		v.check("password", "Password is required")
	}
	return v.err()
}

// ValidateRegistration applies the sign-up form rules.
func ValidateRegistration(r model.Registration) error {
	var v validator
	v.check("name", validateName(r.Name))
	v.check("email", validateEmail(r.Email))
	v.check("password", validatePassword(r.Password))
	v.check("confirmPassword", validateConfirm(r.ConfirmPassword, r.Password))
	return v.err()
}

func validateName(name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "Name is required"
	case len([]rune(name)) < 2:
		return "Name must be at least 2 characters"
	}
	return ""
}

func validateEmail(email string) string {
	switch {
	case email == "":
		return "Email is required"
	case !emailRegexp.MatchString(email):
		return "Please enter a valid email address"
	}
	return ""
}

func validatePassword(pw string) string {
	switch {
	case pw == "":
		return "Password is required"
	case len(pw) < 6:
		return "Password must be at least 6 characters"
	}
	return ""
}

func validateConfirm(confirm, pw string) string {
	switch {
	case confirm == "":
		return "Please confirm your password"
	case confirm != pw:
		return "Passwords do not match"
	}
	return ""
}
