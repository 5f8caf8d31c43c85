package handler

import (
	"net/http"

	"github.com/dodream/cart/internal/service"
)

// CartItemHandler handles member cart line routes.
type CartItemHandler struct {
	carts service.CartService
}

// NewCartItemHandler creates a new cart item handler
func NewCartItemHandler(carts service.CartService) *CartItemHandler {
	return &CartItemHandler{carts: carts}
}

// List handles GET /carts/{cartId}/cart-items
func (h *CartItemHandler) List(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathID(r, "cartId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	items, err := h.carts.ListItems(r.Context(), cartID)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusOK, items)
}

// Add handles POST /carts/{cartId}/cart-items
func (h *CartItemHandler) Add(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathID(r, "cartId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	item, err := h.carts.AddItem(r.Context(), cartID, req.BookID, req.Quantity)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, item)
}

// UpdateQuantity handles PUT /carts/{cartId}/cart-items/{cartItemId}/quantity
func (h *CartItemHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathID(r, "cartId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	cartItemID, err := pathID(r, "cartItemId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	item, err := h.carts.UpdateItemQuantity(r.Context(), cartID, cartItemID, req.Quantity)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	JSON(w, http.StatusOK, item)
}

// RemoveAll handles DELETE /carts/{cartId}/cart-items
func (h *CartItemHandler) RemoveAll(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathID(r, "cartId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if err := h.carts.RemoveAllItems(r.Context(), cartID); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveByBook handles DELETE /carts/{cartId}/cart-items/books/{bookId}
func (h *CartItemHandler) RemoveByBook(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathID(r, "cartId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}
	bookID, err := pathID(r, "bookId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	if err := h.carts.RemoveItemByBook(r.Context(), cartID, bookID); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
