package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/renovamx/storefront/internal/checkout"
	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/internal/session"
	apperrors "github.com/renovamx/storefront/pkg/errors"
)

// CheckoutHandler exposes the checkout wizard over HTTP.
type CheckoutHandler struct {
	svc      *checkout.Service
	sessions session.Provider
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(svc *checkout.Service, sessions session.Provider) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, sessions: sessions}
}

// Routes mounts the checkout endpoints.
func (h *CheckoutHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireDeviceID)
	r.Post("/sessions", h.Start)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Get("/quote", h.Quote)
		r.Post("/confirm-cart", h.ConfirmCart)
		r.Put("/customer", h.SetCustomer)
		r.Put("/shipping", h.SetShipping)
		r.Patch("/fields", h.EditField)
		r.Put("/payment-method", h.SelectPaymentMethod)
		r.Post("/back", h.Back)
		r.Post("/submit", h.Submit)
	})
	return r
}

// Start opens a new checkout session seeded from the caller's cart.
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	cs, err := h.svc.Start(r.Context(), sess)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusCreated, cs)
}

// Get returns a checkout session.
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, cs)
}

// quoteView pairs the session with its current price breakdown.
type quoteView struct {
	Session *domain.CheckoutSession `json:"session"`
	Quote   checkout.Quote          `json:"quote"`
}

// Quote returns the session with its priced totals.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	cs, q, err := h.svc.Quote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, quoteView{Session: cs, Quote: q})
}

// ConfirmCart advances past the cart step.
func (h *CheckoutHandler) ConfirmCart(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	cs, err := h.svc.ConfirmCart(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, cs)
}

// SetCustomer submits the contact form. On validation failure the field
// errors ride along in the error body.
func (h *CheckoutHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.CustomerInfo
	if err := decodeBody(r, &c); err != nil {
		respondError(w, err, nil)
		return
	}

	cs, err := h.svc.SetCustomer(r.Context(), chi.URLParam(r, "id"), c)
	if err != nil {
		respondError(w, err, fieldErrorsOf(cs, err))
		return
	}
	respondData(w, http.StatusOK, cs)
}

// SetShipping submits the delivery form.
func (h *CheckoutHandler) SetShipping(w http.ResponseWriter, r *http.Request) {
	var sh domain.ShippingInfo
	if err := decodeBody(r, &sh); err != nil {
		respondError(w, err, nil)
		return
	}

	cs, err := h.svc.SetShipping(r.Context(), chi.URLParam(r, "id"), sh)
	if err != nil {
		respondError(w, err, fieldErrorsOf(cs, err))
		return
	}
	respondData(w, http.StatusOK, cs)
}

type editFieldRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

// EditField updates one form field, clearing its error once it passes.
func (h *CheckoutHandler) EditField(w http.ResponseWriter, r *http.Request) {
	var req editFieldRequest
	if fields, err := decodeValidated(r, &req); err != nil {
		respondError(w, err, fields)
		return
	}

	cs, err := h.svc.EditField(r.Context(), chi.URLParam(r, "id"), req.Field, req.Value)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, cs)
}

type paymentMethodRequest struct {
	Method string `json:"method"`
}

// SelectPaymentMethod records the chosen payment method.
func (h *CheckoutHandler) SelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err, nil)
		return
	}

	cs, err := h.svc.SelectPaymentMethod(r.Context(), chi.URLParam(r, "id"), req.Method)
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, cs)
}

// Back moves the wizard one step backward.
func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.Back(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, cs)
}

// Submit sends the order to the order service. Collaborator failures come
// back as a 200 whose session carries the payment error, so the client keeps
// a single rendering path for the payment step.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	cs, err := h.svc.Submit(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, nil)
		return
	}
	respondData(w, http.StatusOK, cs)
}

// fieldErrorsOf extracts the per-field errors from a failed form step.
func fieldErrorsOf(cs *domain.CheckoutSession, err error) map[string]string {
	if cs == nil || !errors.Is(err, apperrors.ErrInvalidInput) {
		return nil
	}
	return cs.FieldErrors
}
