package domain

import "time"

// Step identifies a position in the linear checkout wizard.
type Step int

const (
	StepCart Step = iota
	StepCustomer
	StepShipping
	StepPayment
	StepConfirmation
)

var stepNames = map[Step]string{
	StepCart:         "cart",
	StepCustomer:     "customer",
	StepShipping:     "shipping",
	StepPayment:      "payment",
	StepConfirmation: "confirmation",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStep maps a wire name back to a Step.
func ParseStep(name string) (Step, bool) {
	for s, n := range stepNames {
		if n == name {
			return s, true
		}
	}
	return StepCart, false
}

// PaymentStatus tracks the order submission lifecycle within the Payment step.
type PaymentStatus string

const (
	PaymentIdle       PaymentStatus = "idle"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentError      PaymentStatus = "error"
)

// Payment methods offered by the storefront. All are manual flows; there is
// no gateway integration.
const (
	MethodTransferencia = "transferencia"  // bank transfer with payment reference
	MethodTelefono      = "telefono"       // order confirmed by phone call
	MethodContraEntrega = "contra_entrega" // cash on delivery
)

// ValidPaymentMethod reports whether m is one of the offered methods.
func ValidPaymentMethod(m string) bool {
	switch m {
	case MethodTransferencia, MethodTelefono, MethodContraEntrega:
		return true
	}
	return false
}

// CustomerInfo holds the data collected at the Customer step.
type CustomerInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// ShippingInfo holds the data collected at the Shipping step.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	References string `json:"references,omitempty"`
}

// OrderInfo is populated only after a successful submission.
type OrderInfo struct {
	OrderNumber      string `json:"order_number"`
	PaymentReference string `json:"payment_reference,omitempty"`
	Total            int64  `json:"total"`
}

// CheckoutSession is one pass through the checkout wizard.
type CheckoutSession struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id,omitempty"`
	DeviceID      string            `json:"device_id"`
	CurrentStep   Step              `json:"current_step"`
	Items         []LineItem        `json:"items"`
	Customer      CustomerInfo      `json:"customer"`
	Shipping      ShippingInfo      `json:"shipping"`
	FieldErrors   map[string]string `json:"field_errors,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	ErrorMessage  string            `json:"error_message,omitempty"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
	Order         *OrderInfo        `json:"order,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// IsTerminal reports whether the wizard reached its final state. No forward
// or backward transition is defined out of Confirmation.
func (s *CheckoutSession) IsTerminal() bool {
	return s.CurrentStep == StepConfirmation
}

// Cart returns the session items wrapped as a Cart for derived totals.
func (s *CheckoutSession) Cart() *Cart {
	return &Cart{Items: s.Items}
}
