package validator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Shared field-format patterns. These are the single authoritative definitions
// used by both the request DTO validation (via custom tags below) and the
// checkout stepper's per-field validation. Do not duplicate them elsewhere.
var (
	emailRE      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRE      = regexp.MustCompile(`^[0-9()+\-\s]{7,}$`)
	postalCodeRE = regexp.MustCompile(`^[0-9]{4,6}$`)
)

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool { return emailRE.MatchString(s) }

// IsPhone reports whether s looks like a phone number (7+ dialable characters).
func IsPhone(s string) bool { return phoneRE.MatchString(s) }

// IsPostalCode reports whether s is a 4-6 digit postal code.
func IsPostalCode(s string) bool { return postalCodeRE.MatchString(s) }

// NotBlank reports whether s contains any non-whitespace character.
func NotBlank(s string) bool { return strings.TrimSpace(s) != "" }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Custom tags backed by the shared patterns above. These must never be
	// re-implemented with separate regexes at a call site.
	mustRegister(v, "email_loose", func(fl validator.FieldLevel) bool {
		return IsEmail(fl.Field().String())
	})
	mustRegister(v, "phone_mx", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	mustRegister(v, "postal_code", func(fl validator.FieldLevel) bool {
		return IsPostalCode(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with a user-friendly message.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", err.Field(), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field names to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[err.Field()] = msgForTag(err)
	}
	return fields
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email_loose":
		return "must be a valid email address"
	case "phone_mx":
		return "must be a valid phone number"
	case "postal_code":
		return "must be a 4-6 digit postal code"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// DecodeAndValidate reads JSON from the request body into dst and validates it.
func DecodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return Validate(dst)
}
