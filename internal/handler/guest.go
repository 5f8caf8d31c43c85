package handler

import (
	"net/http"

	"github.com/dodream/cart/internal/domain"
	"github.com/dodream/cart/internal/middleware"
)

// GuestCartHandler handles anonymous cart routes under /public.
type GuestCartHandler struct {
	store domain.GuestCartStore
}

// NewGuestCartHandler creates a new guest cart handler
func NewGuestCartHandler(store domain.GuestCartStore) *GuestCartHandler {
	return &GuestCartHandler{store: store}
}

// View handles GET /public/carts. The guest identity comes from the cookie
// the guest middleware maintains; a first-time visitor gets an empty cart
// and a fresh cookie in the same response.
func (h *GuestCartHandler) View(w http.ResponseWriter, r *http.Request) {
	guestID := middleware.GuestIDFromContext(r.Context())

	cart, err := h.store.Render(r.Context(), guestID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusOK, cart)
}

// AddItem handles POST /public/carts/{guestId}/cart-items
func (h *GuestCartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("guestId")

	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if _, err := h.store.AddItem(r.Context(), guestID, req.BookID, req.Quantity); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	cart, err := h.store.Render(r.Context(), guestID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, cart)
}

// UpdateQuantity handles PUT /public/carts/{guestId}/quantity
func (h *GuestCartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("guestId")

	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if _, err := h.store.SetQuantity(r.Context(), guestID, req.BookID, req.Quantity); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	cart, err := h.store.Render(r.Context(), guestID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /public/carts/{guestId}/cart-items/books/{bookId}
func (h *GuestCartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	guestID := r.PathValue("guestId")

	bookID, err := pathID(r, "bookId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if _, err := h.store.RemoveItem(r.Context(), guestID, bookID); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
