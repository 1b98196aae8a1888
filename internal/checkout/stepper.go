package checkout

import (
	"time"

	"github.com/renovamx/storefront/internal/domain"
	apperrors "github.com/renovamx/storefront/pkg/errors"
)

// Effect is a side effect emitted by a state transition. Effects keep the
// one-shot semantics explicit: reaching Confirmation emits ClearCart exactly
// once because the transition itself can only fire once per session.
type Effect int

const (
	// EffectClearCart empties the customer's cart after a completed checkout.
	EffectClearCart Effect = iota + 1
)

// User-facing stepper messages.
const (
	msgCartEmpty         = "Tu carrito está vacío"
	msgMethodRequired    = "Selecciona un método de pago"
	msgAlreadySubmitting = "Tu pedido se está procesando"
)

// ConfirmCart advances Cart -> Customer. Guard: the cart must not be empty.
// On a failed guard the current step is left unchanged.
func ConfirmCart(s *domain.CheckoutSession) error {
	if s.CurrentStep != domain.StepCart {
		return apperrors.Conflict("checkout is past the cart step")
	}
	if s.Cart().ItemCount() == 0 {
		return apperrors.InvalidInput(msgCartEmpty)
	}
	s.CurrentStep = domain.StepCustomer
	return nil
}

// SetCustomer stores the customer data and advances Customer -> Shipping when
// every field passes. On failure all field errors are populated at once and
// the step does not move.
func SetCustomer(s *domain.CheckoutSession, c domain.CustomerInfo) error {
	if s.CurrentStep != domain.StepCustomer {
		return apperrors.Conflict("checkout is not at the customer step")
	}
	s.Customer = c
	if errs := ValidateCustomer(c); len(errs) > 0 {
		s.FieldErrors = errs
		return apperrors.InvalidInput("datos de contacto incompletos")
	}
	s.FieldErrors = nil
	s.CurrentStep = domain.StepShipping
	return nil
}

// SetShipping stores the shipping data and advances Shipping -> Payment when
// every field passes.
func SetShipping(s *domain.CheckoutSession, sh domain.ShippingInfo) error {
	if s.CurrentStep != domain.StepShipping {
		return apperrors.Conflict("checkout is not at the shipping step")
	}
	s.Shipping = sh
	if errs := ValidateShipping(sh); len(errs) > 0 {
		s.FieldErrors = errs
		return apperrors.InvalidInput("datos de envío incompletos")
	}
	s.FieldErrors = nil
	s.CurrentStep = domain.StepPayment
	return nil
}

// EditField updates one field's value and clears its error the instant the
// field's own predicate passes, without waiting for the next full-step
// validation. Errors for other fields are untouched.
func EditField(s *domain.CheckoutSession, field, value string) error {
	if s.IsTerminal() {
		return apperrors.Conflict("checkout is already confirmed")
	}
	known, valid := fieldValid(field, value)
	if !known {
		return apperrors.InvalidInput("unknown field: " + field)
	}

	switch field {
	case FieldFullName:
		s.Customer.FullName = value
	case FieldEmail:
		s.Customer.Email = value
	case FieldPhone:
		s.Customer.Phone = value
	case FieldAddress:
		s.Shipping.Address = value
	case FieldCity:
		s.Shipping.City = value
	case FieldState:
		s.Shipping.State = value
	case FieldPostalCode:
		s.Shipping.PostalCode = value
	case FieldReferences:
		s.Shipping.References = value
	}

	if valid {
		delete(s.FieldErrors, field)
	}
	return nil
}

// SelectPaymentMethod records the chosen method at the Payment step.
func SelectPaymentMethod(s *domain.CheckoutSession, method string) error {
	if s.CurrentStep != domain.StepPayment {
		return apperrors.Conflict("checkout is not at the payment step")
	}
	if s.PaymentStatus == domain.PaymentProcessing {
		return apperrors.Conflict(msgAlreadySubmitting)
	}
	if !domain.ValidPaymentMethod(method) {
		return apperrors.InvalidInput(msgMethodRequired)
	}
	s.PaymentMethod = method
	return nil
}

// Back moves one step backward. From Cart it is a no-op; from Confirmation it
// is rejected (terminal state).
func Back(s *domain.CheckoutSession) error {
	switch s.CurrentStep {
	case domain.StepCart:
		return nil
	case domain.StepConfirmation:
		return apperrors.Conflict("checkout is already confirmed")
	}
	if s.PaymentStatus == domain.PaymentProcessing {
		return apperrors.Conflict(msgAlreadySubmitting)
	}
	s.CurrentStep--
	return nil
}

// BeginSubmission guards the Payment step and moves the payment status
// Idle/Error -> Processing. Advancing out of Payment never happens through a
// guard; it happens through CompleteSubmission once the collaborator answers.
func BeginSubmission(s *domain.CheckoutSession) error {
	if s.CurrentStep != domain.StepPayment {
		return apperrors.Conflict("checkout is not at the payment step")
	}
	if s.PaymentMethod == "" {
		return apperrors.InvalidInput(msgMethodRequired)
	}
	if s.PaymentStatus == domain.PaymentProcessing {
		return apperrors.Conflict(msgAlreadySubmitting)
	}
	if s.PaymentStatus == domain.PaymentCompleted {
		return apperrors.Conflict("checkout already completed")
	}
	s.PaymentStatus = domain.PaymentProcessing
	s.ErrorMessage = ""
	s.RedirectURL = ""
	return nil
}

// CompleteSubmission resolves Processing -> Completed, records the order info,
// and advances into Confirmation. The returned effects carry the one-time
// cart clear; a replay against a session already in Confirmation returns no
// effects, so the clear can never fire twice.
func CompleteSubmission(s *domain.CheckoutSession, order domain.OrderInfo) []Effect {
	if s.CurrentStep != domain.StepPayment || s.PaymentStatus != domain.PaymentProcessing {
		return nil
	}
	s.Order = &order
	s.PaymentStatus = domain.PaymentCompleted
	s.CurrentStep = domain.StepConfirmation
	s.UpdatedAt = time.Now().UTC()
	return []Effect{EffectClearCart}
}

// FailSubmission resolves Processing -> Error with a user-facing message and
// an optional redirect (used when the session expired). The customer may
// retry, which moves Error back to Processing via BeginSubmission.
func FailSubmission(s *domain.CheckoutSession, message, redirectURL string) {
	if s.PaymentStatus != domain.PaymentProcessing {
		return
	}
	s.PaymentStatus = domain.PaymentError
	s.ErrorMessage = message
	s.RedirectURL = redirectURL
	s.UpdatedAt = time.Now().UTC()
}
