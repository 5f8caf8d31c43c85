package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dodream/cart/internal/domain"
	"github.com/dodream/cart/internal/events"
	"github.com/dodream/cart/internal/telemetry"
)

// MergeCoordinator folds an anonymous shopper's guest cart into their durable
// cart at login, then discards the guest cart.
//
// The fold is all-or-nothing on pricing: every book the guest cart references
// must resolve before the first durable write, so a pricing outage leaves
// both carts untouched and the merge safely retryable. Eviction, by contrast,
// is best-effort: once the fold has committed the merge has succeeded, and a
// guest cart the cache refuses to release is only wasted space.
//
// Re-running the fold against the same durable cart is not idempotent
// (quantities double), so a merge whose eviction ultimately fails can be
// re-applied by a second login. That gap is accepted for now; see DESIGN.md.
type MergeCoordinator struct {
	guest     domain.GuestCartStore
	repo      domain.CartRepository
	pricing   domain.PricingLookup
	evictor   *Evictor
	publisher events.Publisher
	metrics   *telemetry.CartMetrics
	logger    *slog.Logger
}

// NewMergeCoordinator wires a merge coordinator. metrics may be nil.
func NewMergeCoordinator(
	guest domain.GuestCartStore,
	repo domain.CartRepository,
	pricing domain.PricingLookup,
	evictor *Evictor,
	publisher events.Publisher,
	metrics *telemetry.CartMetrics,
	logger *slog.Logger,
) *MergeCoordinator {
	return &MergeCoordinator{
		guest:     guest,
		repo:      repo,
		pricing:   pricing,
		evictor:   evictor,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Merge reconciles the guest cart identified by guestID into the durable
// cart owned by ownerID.
//
// An absent or empty guest cart is the normal "nothing to merge" case and
// terminates with no side effects. Blank identifiers fail fast with
// ErrMissingIdentifier before any store is touched.
func (c *MergeCoordinator) Merge(ctx context.Context, ownerID, guestID string) error {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(guestID) == "" {
		c.countFailure("identity")
		return ErrMissingIdentifier
	}

	// 1. Fetch the raw guest cart.
	guestCart, err := c.guest.Get(ctx, guestID)
	if err != nil {
		c.countFailure("store")
		return fmt.Errorf("merge: failed to read guest cart: %w", err)
	}
	if guestCart.Empty() {
		c.logger.Debug("merge: nothing to fold", "owner_id", ownerID, "guest_id", guestID)
		if c.metrics != nil {
			c.metrics.MergesEmpty.Inc()
		}
		return nil
	}

	// 2. Resolve or create the durable cart.
	cart, err := c.repo.FindByOwner(ctx, ownerID)
	if errors.Is(err, domain.ErrCartNotFound) {
		cart, err = c.repo.Create(ctx, ownerID)
	}
	if err != nil {
		c.countFailure("store")
		return fmt.Errorf("merge: failed to resolve durable cart: %w", err)
	}

	// 3. Fold. Pricing for the whole batch is resolved before the first
	// write; a gap aborts the merge so it never half-folds a cart.
	ids := make([]int64, 0, len(guestCart.Items))
	for _, item := range guestCart.Items {
		ids = append(ids, item.BookID)
	}

	books, err := c.pricing.ResolveBatch(ctx, ids)
	if err != nil {
		c.countFailure("pricing")
		return fmt.Errorf("merge: book lookup failed: %w: %w", ErrPricingUnavailable, err)
	}
	for _, id := range ids {
		if _, ok := books[id]; !ok {
			c.countFailure("pricing")
			return fmt.Errorf("merge: book %d missing from lookup: %w", id, ErrPricingUnavailable)
		}
	}

	for _, item := range guestCart.Items {
		quantity := item.Quantity

		line, err := c.repo.FindLine(ctx, cart.CartID, item.BookID)
		if err == nil {
			// Durable carts are uncapped; quantities sum.
			quantity += line.Quantity
		} else if !errors.Is(err, domain.ErrCartItemNotFound) {
			c.countFailure("store")
			return fmt.Errorf("merge: failed to read durable line: %w", err)
		}

		book := books[item.BookID]
		_, err = c.repo.UpsertLine(ctx, domain.CartItem{
			CartID:    cart.CartID,
			BookID:    item.BookID,
			Quantity:  quantity,
			SalePrice: book.SalePrice,
			Available: book.Orderable(quantity),
		})
		if err != nil {
			c.countFailure("store")
			return fmt.Errorf("merge: failed to write durable line: %w", err)
		}
	}

	if c.metrics != nil {
		c.metrics.MergesCompleted.Inc()
		c.metrics.MergedLines.Observe(float64(len(guestCart.Items)))
	}

	if err := c.publisher.Publish(ctx, events.SubjectCartMerged, events.CartMerged{
		OwnerID:   ownerID,
		CartID:    cart.CartID,
		ItemCount: len(guestCart.Items),
		MergedAt:  time.Now().UTC(),
	}); err != nil {
		c.logger.Warn("merge: failed to publish cart.merged", "owner_id", ownerID, "error", err)
	}

	// 4. Evict. The fold has committed; a failed eviction is logged and
	// counted but never surfaces to the caller.
	if c.evictor.Evict(ctx, guestID) {
		if c.metrics != nil {
			c.metrics.EvictionsSucceeded.Inc()
		}
	} else if c.metrics != nil {
		c.metrics.EvictionsExhausted.Inc()
	}

	c.logger.Info("merge: guest cart folded",
		"owner_id", ownerID, "guest_id", guestID, "cart_id", cart.CartID, "lines", len(guestCart.Items))
	return nil
}

func (c *MergeCoordinator) countFailure(reason string) {
	if c.metrics != nil {
		c.metrics.MergesFailed.WithLabelValues(reason).Inc()
	}
}
