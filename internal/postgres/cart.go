// Package postgres implements the durable cart repository on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dodream/cart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// CartRepository implements domain.CartRepository using pgx.
type CartRepository struct {
	pool *pgxpool.Pool
}

// Compile-time check to ensure CartRepository implements domain.CartRepository.
var _ domain.CartRepository = (*CartRepository)(nil)

// NewCartRepository creates a new CartRepository instance.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// FindByOwner returns the cart for an owner, or ErrCartNotFound.
func (r *CartRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx,
		`SELECT cart_id, owner_id FROM carts WHERE owner_id = $1`,
		ownerID,
	).Scan(&cart.CartID, &cart.OwnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find cart for owner %s: %w", ownerID, domain.ErrCartNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart by owner: %w", err)
	}
	return &cart, nil
}

// Create inserts a cart for the owner. A concurrent create of the same
// owner loses the unique-constraint race and falls back to re-reading the
// winner's row.
func (r *CartRepository) Create(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.pool.QueryRow(ctx,
		`INSERT INTO carts (owner_id) VALUES ($1) RETURNING cart_id, owner_id`,
		ownerID,
	).Scan(&cart.CartID, &cart.OwnerID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return r.FindByOwner(ctx, ownerID)
		}
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &cart, nil
}

// Delete removes a cart; its lines go with it via ON DELETE CASCADE.
func (r *CartRepository) Delete(ctx context.Context, cartID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete cart %d: %w", cartID, domain.ErrCartNotFound)
	}
	return nil
}

// Exists reports whether a cart row exists.
func (r *CartRepository) Exists(ctx context.Context, cartID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM carts WHERE cart_id = $1)`, cartID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check cart existence: %w", err)
	}
	return exists, nil
}

// FindLine returns the line for (cartID, bookID), or ErrCartItemNotFound.
func (r *CartRepository) FindLine(ctx context.Context, cartID, bookID int64) (*domain.CartItem, error) {
	var line domain.CartItem
	err := r.pool.QueryRow(ctx,
		`SELECT cart_item_id, cart_id, book_id, quantity, sale_price, available
		 FROM cart_items WHERE cart_id = $1 AND book_id = $2`,
		cartID, bookID,
	).Scan(&line.CartItemID, &line.CartID, &line.BookID, &line.Quantity, &line.SalePrice, &line.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find line for cart %d book %d: %w", cartID, bookID, domain.ErrCartItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}
	return &line, nil
}

// FindLineByID returns the line with the given id, or ErrCartItemNotFound.
func (r *CartRepository) FindLineByID(ctx context.Context, cartItemID int64) (*domain.CartItem, error) {
	var line domain.CartItem
	err := r.pool.QueryRow(ctx,
		`SELECT cart_item_id, cart_id, book_id, quantity, sale_price, available
		 FROM cart_items WHERE cart_item_id = $1`,
		cartItemID,
	).Scan(&line.CartItemID, &line.CartID, &line.BookID, &line.Quantity, &line.SalePrice, &line.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find line %d: %w", cartItemID, domain.ErrCartItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}
	return &line, nil
}

// ListLines returns all lines of a cart, oldest first.
func (r *CartRepository) ListLines(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cart_item_id, cart_id, book_id, quantity, sale_price, available
		 FROM cart_items WHERE cart_id = $1 ORDER BY cart_item_id`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartItem
	for rows.Next() {
		var line domain.CartItem
		if err := rows.Scan(&line.CartItemID, &line.CartID, &line.BookID, &line.Quantity, &line.SalePrice, &line.Available); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}
	return lines, nil
}

// UpsertLine inserts the line, or overwrites quantity, price and
// availability when (cart_id, book_id) already exists.
func (r *CartRepository) UpsertLine(ctx context.Context, line domain.CartItem) (*domain.CartItem, error) {
	var saved domain.CartItem
	err := r.pool.QueryRow(ctx,
		`INSERT INTO cart_items (cart_id, book_id, quantity, sale_price, available)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (cart_id, book_id) DO UPDATE
		 SET quantity = EXCLUDED.quantity,
		     sale_price = EXCLUDED.sale_price,
		     available = EXCLUDED.available,
		     updated_at = now()
		 RETURNING cart_item_id, cart_id, book_id, quantity, sale_price, available`,
		line.CartID, line.BookID, line.Quantity, line.SalePrice, line.Available,
	).Scan(&saved.CartItemID, &saved.CartID, &saved.BookID, &saved.Quantity, &saved.SalePrice, &saved.Available)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart line: %w", err)
	}
	return &saved, nil
}

// DeleteLine removes a single line by id.
func (r *CartRepository) DeleteLine(ctx context.Context, cartItemID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_item_id = $1`, cartItemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete line %d: %w", cartItemID, domain.ErrCartItemNotFound)
	}
	return nil
}

// DeleteLines removes all lines of a cart and returns how many went away.
func (r *CartRepository) DeleteLines(ctx context.Context, cartID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cart lines: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteLineByBook removes the line holding a given book.
func (r *CartRepository) DeleteLineByBook(ctx context.Context, cartID, bookID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND book_id = $2`, cartID, bookID)
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete line for cart %d book %d: %w", cartID, bookID, domain.ErrCartItemNotFound)
	}
	return nil
}
