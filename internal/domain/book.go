package domain

import "context"

// BookStatus is the catalog's sale state for a book.
type BookStatus string

const (
	BookStatusSell         BookStatus = "SELL"
	BookStatusSoldOut      BookStatus = "SOLD_OUT"
	BookStatusDiscontinued BookStatus = "DISCONTINUED"
)

// Book is the slice of catalog data the cart service cares about:
// current title, discounted sale price and stock.
type Book struct {
	BookID    int64      `json:"bookId"`
	Title     string     `json:"title"`
	SalePrice int64      `json:"salePrice"`
	Stock     *int64     `json:"stock"`
	Status    BookStatus `json:"status"`
}

// Orderable reports whether the requested quantity can currently be ordered.
func (b Book) Orderable(quantity int64) bool {
	return b.Status == BookStatusSell && b.Stock != nil && *b.Stock >= quantity
}

// PricingLookup resolves a batch of book ids against the remote catalog.
// The result may be partial: an id missing from the map means the catalog
// does not know it, which is not an error at this level. A non-nil error
// means the call itself failed and no data is usable.
type PricingLookup interface {
	ResolveBatch(ctx context.Context, ids []int64) (map[int64]Book, error)
}
