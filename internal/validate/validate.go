// Package validate checks form input before anything is sent anywhere.
//
// Forms are plain structs with `validate` tags (go-playground/validator),
// a `form` tag naming the field and a `label` tag used in messages.
// Struct returns one message per failing field, in declaration order.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// Custom validation tags.
const (
	TagEmail          = "email_address"
	TagStrongPassword = "strong_password"
	TagImageFile      = "image_file"
)

// Fixed messages.
const (
	MsgInvalidEmail     = "Invalid email address"
	MsgWeakPassword     = "Password must include uppercase, lowercase, numbers, and special characters"
	MsgPasswordMismatch = "Passwords do not match"
)

var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

const passwordSymbols = "!@#$%^&*"

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// StrongPassword reports whether s is at least 8 characters drawn from
// letters, digits and !@#$%^&*, with at least one of each kind.
func StrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var letter, digit, symbol bool
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			letter = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, c):
			symbol = true
		default:
			return false
		}
	}
	return letter && digit && symbol
}

// IsImage reports whether the file at path is an image, judged by content.
func IsImage(path string) (bool, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return false, fmt.Errorf("detecting file type: %w", err)
	}
	return strings.HasPrefix(mt.String(), "image/"), nil
}

// =============================================================================
// Field errors
// =============================================================================

// FieldError is a failed check on one form field.
type FieldError struct {
	Field   string
	Message string
}

// FieldErrors is the ordered set of failures for a form.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, e := range fe {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for field.
func (fe FieldErrors) Get(field string) (string, bool) {
	for _, e := range fe {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

// =============================================================================
// Struct validation
// =============================================================================

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name, _, _ := strings.Cut(f.Tag.Get("form"), ","); name != "" && name != "-" {
				return name
			}
			return f.Name
		})
		must(v.RegisterValidation(TagEmail, func(fl validator.FieldLevel) bool {
			return Email(fl.Field().String())
		}))
		must(v.RegisterValidation(TagStrongPassword, func(fl validator.FieldLevel) bool {
			return StrongPassword(fl.Field().String())
		}))
		must(v.RegisterValidation(TagImageFile, func(fl validator.FieldLevel) bool {
			ok, err := IsImage(fl.Field().String())
			return err == nil && ok
		}))
		instance = v
	})
	return instance
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates form and returns nil or FieldErrors. form must be a
// struct or a pointer to one.
func Struct(form any) error {
	err := engine().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating form: %w", err)
	}

	t := reflect.TypeOf(form)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Message: message(fe, label(t, fe.StructField())),
		})
	}
	return out
}

func label(t reflect.Type, structField string) string {
	if f, ok := t.FieldByName(structField); ok {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
	}
	return structField
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case TagEmail:
		return MsgInvalidEmail
	case TagStrongPassword:
		return MsgWeakPassword
	case "eqfield":
		return MsgPasswordMismatch
	case TagImageFile:
		return label + " must be an image"
	default:
		return label + " is invalid"
	}
}
