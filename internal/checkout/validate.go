package checkout

import (
	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/pkg/validator"
)

// Field names used in per-field errors. They match the JSON keys the
// storefront frontend renders errors next to.
const (
	FieldFullName   = "full_name"
	FieldEmail      = "email"
	FieldPhone      = "phone"
	FieldAddress    = "address"
	FieldCity       = "city"
	FieldState      = "state"
	FieldPostalCode = "postal_code"
	FieldReferences = "references"
)

// User-facing validation messages, in the storefront's language.
const (
	msgFullNameRequired = "Ingresa tu nombre completo"
	msgEmailInvalid     = "Ingresa un correo electrónico válido"
	msgPhoneInvalid     = "Ingresa un teléfono válido (mínimo 7 dígitos)"
	msgAddressRequired  = "Ingresa tu dirección"
	msgCityRequired     = "Ingresa tu ciudad"
	msgStateRequired    = "Ingresa tu estado"
	msgPostalInvalid    = "Ingresa un código postal de 4 a 6 dígitos"
)

// fieldValid reports whether a single field passes its own predicate. The
// predicates are the shared definitions in pkg/validator; per-field and
// per-step validation must never diverge.
func fieldValid(field, value string) (known bool, valid bool) {
	switch field {
	case FieldFullName:
		return true, validator.NotBlank(value)
	case FieldEmail:
		return true, validator.IsEmail(value)
	case FieldPhone:
		return true, validator.IsPhone(value)
	case FieldAddress:
		return true, validator.NotBlank(value)
	case FieldCity:
		return true, validator.NotBlank(value)
	case FieldState:
		return true, validator.NotBlank(value)
	case FieldPostalCode:
		return true, validator.IsPostalCode(value)
	case FieldReferences:
		return true, true // optional free text
	}
	return false, false
}

// ValidateCustomer runs the full Customer step validation, returning every
// field error at once.
func ValidateCustomer(c domain.CustomerInfo) map[string]string {
	errs := make(map[string]string)
	if !validator.NotBlank(c.FullName) {
		errs[FieldFullName] = msgFullNameRequired
	}
	if !validator.IsEmail(c.Email) {
		errs[FieldEmail] = msgEmailInvalid
	}
	if !validator.IsPhone(c.Phone) {
		errs[FieldPhone] = msgPhoneInvalid
	}
	return errs
}

// ValidateShipping runs the full Shipping step validation.
func ValidateShipping(s domain.ShippingInfo) map[string]string {
	errs := make(map[string]string)
	if !validator.NotBlank(s.Address) {
		errs[FieldAddress] = msgAddressRequired
	}
	if !validator.NotBlank(s.City) {
		errs[FieldCity] = msgCityRequired
	}
	if !validator.NotBlank(s.State) {
		errs[FieldState] = msgStateRequired
	}
	if !validator.IsPostalCode(s.PostalCode) {
		errs[FieldPostalCode] = msgPostalInvalid
	}
	return errs
}
