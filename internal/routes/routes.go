// Package routes registers the HTTP surface of the cart service.
package routes

import (
	"github.com/dodream/cart/internal/handler"
	"github.com/dodream/cart/internal/router"
)

// Deps carries the handlers the route table needs.
type Deps struct {
	Cart  *handler.CartHandler
	Items *handler.CartItemHandler
	Guest *handler.GuestCartHandler
}

// Register wires all cart routes. guestID is the middleware that maintains
// the guest identity cookie; it runs on the public (anonymous) routes and on
// the merge route, which needs both identities.
func Register(r *router.Router, guestID router.Middleware, deps Deps) {
	// Member cart
	r.Get("/carts/users", deps.Cart.GetUserCart)
	r.Post("/carts", deps.Cart.CreateCart)
	r.Delete("/carts/{cartId}", deps.Cart.DeleteCart)
	r.Post("/carts/merge", deps.Cart.Merge, guestID)

	// Member cart lines
	r.Get("/carts/{cartId}/cart-items", deps.Items.List)
	r.Post("/carts/{cartId}/cart-items", deps.Items.Add)
	r.Put("/carts/{cartId}/cart-items/{cartItemId}/quantity", deps.Items.UpdateQuantity)
	r.Delete("/carts/{cartId}/cart-items", deps.Items.RemoveAll)
	r.Delete("/carts/{cartId}/cart-items/books/{bookId}", deps.Items.RemoveByBook)

	// Guest cart
	pub := r.Group(guestID)
	pub.Get("/public/carts", deps.Guest.View)
	pub.Post("/public/carts/{guestId}/cart-items", deps.Guest.AddItem)
	pub.Put("/public/carts/{guestId}/quantity", deps.Guest.UpdateQuantity)
	pub.Delete("/public/carts/{guestId}/cart-items/books/{bookId}", deps.Guest.RemoveItem)
}
