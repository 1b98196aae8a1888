// Package order is the boundary to the order-submission collaborator. The
// storefront has no payment gateway; the collaborator registers the order and
// hands back a human-readable payment reference for the manual flows
// (bank transfer, phone confirmation, cash on delivery).
package order

import (
	"context"
	"fmt"

	"github.com/renovamx/storefront/internal/domain"
)

// Kind classifies a submission failure. Callers branch on Kind, never on
// message contents.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation"
	KindNetwork      Kind = "network"
	KindUnknown      Kind = "unknown"
)

// SubmitError is a structured submission failure.
type SubmitError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("submit order (%s): %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("submit order (%s): %s", e.Kind, e.Message)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// Totals is the price breakdown sent with a submission, in centavos.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Request is the payload assembled by the checkout service at submission.
type Request struct {
	Customer      domain.CustomerInfo `json:"customer"`
	Shipping      domain.ShippingInfo `json:"shipping"`
	Items         []domain.LineItem   `json:"items"`
	Totals        Totals              `json:"totals"`
	PaymentMethod string              `json:"payment_method"`
	UserID        string              `json:"user_id,omitempty"`
}

// Result is a successful submission response.
type Result struct {
	Order struct {
		Number string `json:"number"`
		Total  int64  `json:"total"`
	} `json:"order"`
	Payment struct {
		ReferenceNumber string `json:"reference_number"`
	} `json:"payment"`
}

// Submitter sends an assembled order to the collaborator.
type Submitter interface {
	Submit(ctx context.Context, req *Request) (*Result, error)
}
