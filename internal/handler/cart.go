package handler

import (
	"context"
	"net/http"

	"github.com/dodream/cart/internal/middleware"
	"github.com/dodream/cart/internal/service"
)

// merger is the slice of the merge coordinator this handler needs.
type merger interface {
	Merge(ctx context.Context, ownerID, guestID string) error
}

// CartHandler handles member cart routes.
type CartHandler struct {
	carts service.CartService
	merge merger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts service.CartService, merge merger) *CartHandler {
	return &CartHandler{carts: carts, merge: merge}
}

// GetUserCart handles GET /carts/users
func (h *CartHandler) GetUserCart(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-USER-ID")

	cart, err := h.carts.GetCart(r.Context(), ownerID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusOK, cart)
}

// CreateCart handles POST /carts
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-USER-ID")

	cart, err := h.carts.GetOrCreateCart(r.Context(), ownerID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, cart)
}

// DeleteCart handles DELETE /carts/{cartId}
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathID(r, "cartId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if err := h.carts.DeleteCart(r.Context(), cartID); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Merge handles POST /carts/merge. The owner identity arrives in X-USER-ID;
// the guest identity comes from the cookie the guest middleware maintains.
func (h *CartHandler) Merge(w http.ResponseWriter, r *http.Request) {
	ownerID := r.Header.Get("X-USER-ID")
	guestID := middleware.GuestIDFromContext(r.Context())

	if err := h.merge.Merge(r.Context(), ownerID, guestID); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
