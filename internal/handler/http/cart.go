package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/renovamx/storefront/internal/cart"
	"github.com/renovamx/storefront/internal/domain"
	"github.com/renovamx/storefront/internal/session"
	apperrors "github.com/renovamx/storefront/pkg/errors"
)

// CartHandler exposes the cart over HTTP.
type CartHandler struct {
	carts    *cart.Manager
	sessions session.Provider
}

// NewCartHandler creates a cart handler.
func NewCartHandler(carts *cart.Manager, sessions session.Provider) *CartHandler {
	return &CartHandler{carts: carts, sessions: sessions}
}

// Routes mounts the cart endpoints.
func (h *CartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireDeviceID)
	r.Get("/", h.Get)
	r.Put("/", h.ReplaceAll)
	r.Delete("/", h.Clear)
	r.Post("/items", h.AddItem)
	r.Post("/items/{id}/decrease", h.DecreaseQuantity)
	r.Delete("/items/{id}", h.RemoveItem)
	return r
}

// cartView is the wire shape of a cart with its derived totals.
type cartView struct {
	Items     []domain.LineItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  int64             `json:"subtotal"`
}

func viewOf(items []domain.LineItem) cartView {
	c := domain.Cart{Items: items}
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartView{Items: items, ItemCount: c.ItemCount(), Subtotal: c.Subtotal()}
}

// Get returns the current cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	respondData(w, http.StatusOK, viewOf(h.carts.Items(r.Context(), sess)))
}

type addItemRequest struct {
	Item     domain.LineItem `json:"item"`
	Quantity int             `json:"quantity" validate:"gte=0,lte=999"`
}

// AddItem adds a product to the cart, merging quantities for a known ID.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if fields, err := decodeValidated(r, &req); err != nil {
		respondError(w, err, fields)
		return
	}
	if req.Item.ID == "" {
		respondError(w, apperrors.InvalidInput("item id is required"), nil)
		return
	}

	sess := h.sessions.FromRequest(r)
	items := h.carts.AddItem(r.Context(), sess, req.Item, req.Quantity)
	respondData(w, http.StatusOK, viewOf(items))
}

// DecreaseQuantity lowers an item's quantity by one, floored at one.
func (h *CartHandler) DecreaseQuantity(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	items := h.carts.DecreaseQuantity(r.Context(), sess, chi.URLParam(r, "id"))
	respondData(w, http.StatusOK, viewOf(items))
}

// RemoveItem deletes an item from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	items := h.carts.RemoveItem(r.Context(), sess, chi.URLParam(r, "id"))
	respondData(w, http.StatusOK, viewOf(items))
}

type replaceAllRequest struct {
	Items []domain.LineItem `json:"items"`
}

// ReplaceAll swaps the cart contents wholesale.
func (h *CartHandler) ReplaceAll(w http.ResponseWriter, r *http.Request) {
	var req replaceAllRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err, nil)
		return
	}

	sess := h.sessions.FromRequest(r)
	items := h.carts.ReplaceAll(r.Context(), sess, req.Items)
	respondData(w, http.StatusOK, viewOf(items))
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.FromRequest(r)
	h.carts.Clear(r.Context(), sess)
	respondData(w, http.StatusOK, viewOf(nil))
}
