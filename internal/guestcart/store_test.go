package guestcart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dodream/cart/internal/domain"
)

// fakeKV is an in-memory KV with per-test failure hooks.
type fakeKV struct {
	data     map[string][]byte
	ttls     map[string]time.Duration
	setCalls int

	getErr error
	setErr error
	delErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	raw, ok := f.data[key]
	return raw, ok, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls++
	f.data[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Del(ctx context.Context, key string) (bool, error) {
	if f.delErr != nil {
		return false, f.delErr
	}
	_, ok := f.data[key]
	delete(f.data, key)
	delete(f.ttls, key)
	return ok, nil
}

type pricingFunc func(ctx context.Context, ids []int64) (map[int64]domain.Book, error)

func (f pricingFunc) ResolveBatch(ctx context.Context, ids []int64) (map[int64]domain.Book, error) {
	return f(ctx, ids)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(kv KV, pricing domain.PricingLookup) *Store {
	return New(kv, pricing, Config{
		TTL:         7 * 24 * time.Hour,
		MaxItems:    20,
		MaxQuantity: 20,
	}, testLogger())
}

func mustStoreCart(t *testing.T, kv *fakeKV, cart domain.GuestCart) {
	t.Helper()
	raw, err := json.Marshal(cart)
	if err != nil {
		t.Fatalf("marshal cart: %v", err)
	}
	kv.data[defaultKeyPrefix+cart.GuestID] = raw
}

func TestStore_GetAbsentCart(t *testing.T) {
	store := newTestStore(newFakeKV(), nil)

	cart, err := store.Get(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cart.GuestID != "g-1" {
		t.Errorf("GuestID = %q, want %q", cart.GuestID, "g-1")
	}
	if len(cart.Items) != 0 {
		t.Errorf("absent cart should render empty, got %d items", len(cart.Items))
	}
}

func TestStore_AddItemValidation(t *testing.T) {
	store := newTestStore(newFakeKV(), nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		bookID   int64
		quantity int64
	}{
		{"zero quantity", 5, 0},
		{"negative quantity", 5, -3},
		{"zero book id", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.AddItem(ctx, "g-1", tt.bookID, tt.quantity)
			if !errors.Is(err, domain.ErrInvalidQuantity) {
				t.Errorf("AddItem() error = %v, want ErrInvalidQuantity", err)
			}
		})
	}
}

func TestStore_AddItemNewLine(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)

	cart, err := store.AddItem(context.Background(), "g-1", 5, 3)
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].BookID != 5 || cart.Items[0].Quantity != 3 {
		t.Errorf("unexpected cart after add: %+v", cart.Items)
	}
	if kv.setCalls != 1 {
		t.Errorf("setCalls = %d, want 1", kv.setCalls)
	}
}

func TestStore_AddItemCapsQuantity(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)
	ctx := context.Background()

	// Topping up an existing line saturates at the cap instead of failing.
	mustStoreCart(t, kv, domain.GuestCart{
		GuestID: "g-1",
		Items:   []domain.GuestCartItem{{BookID: 5, Quantity: 18}},
	})

	cart, err := store.AddItem(ctx, "g-1", 5, 5)
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if got := cart.Items[0].Quantity; got != 20 {
		t.Errorf("quantity = %d, want 20 (18+5 capped)", got)
	}

	// A brand-new oversized line is also inserted at the cap.
	cart, err = store.AddItem(ctx, "g-1", 6, 50)
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if got := cart.Find(6).Quantity; got != 20 {
		t.Errorf("new line quantity = %d, want 20", got)
	}
}

func TestStore_AddItemCapacityExceeded(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)
	ctx := context.Background()

	full := domain.GuestCart{GuestID: "g-1"}
	for i := int64(1); i <= 20; i++ {
		full.Items = append(full.Items, domain.GuestCartItem{BookID: i, Quantity: 1})
	}
	mustStoreCart(t, kv, full)

	_, err := store.AddItem(ctx, "g-1", 21, 1)
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("AddItem() error = %v, want ErrCapacityExceeded", err)
	}
	if kv.setCalls != 0 {
		t.Errorf("rejected add must not write, setCalls = %d", kv.setCalls)
	}

	// Topping up a line the full cart already holds still works.
	cart, err := store.AddItem(ctx, "g-1", 20, 1)
	if err != nil {
		t.Fatalf("AddItem() on existing line error = %v", err)
	}
	if got := cart.Find(20).Quantity; got != 2 {
		t.Errorf("quantity = %d, want 2", got)
	}
}

func TestStore_SetQuantity(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)
	ctx := context.Background()

	mustStoreCart(t, kv, domain.GuestCart{
		GuestID: "g-1",
		Items:   []domain.GuestCartItem{{BookID: 5, Quantity: 2}},
	})

	cart, err := store.SetQuantity(ctx, "g-1", 5, 7)
	if err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if got := cart.Items[0].Quantity; got != 7 {
		t.Errorf("quantity = %d, want 7", got)
	}

	if _, err := store.SetQuantity(ctx, "g-1", 5, 0); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("SetQuantity(0) error = %v, want ErrInvalidQuantity", err)
	}
	if _, err := store.SetQuantity(ctx, "g-1", 5, 21); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("SetQuantity(21) error = %v, want ErrInvalidQuantity", err)
	}
	if _, err := store.SetQuantity(ctx, "g-1", 99, 3); !errors.Is(err, domain.ErrCartItemNotFound) {
		t.Errorf("SetQuantity on absent line error = %v, want ErrCartItemNotFound", err)
	}
}

func TestStore_RemoveItemIsIdempotent(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)
	ctx := context.Background()

	mustStoreCart(t, kv, domain.GuestCart{
		GuestID: "g-1",
		Items:   []domain.GuestCartItem{{BookID: 5, Quantity: 2}, {BookID: 7, Quantity: 1}},
	})

	cart, err := store.RemoveItem(ctx, "g-1", 5)
	if err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].BookID != 7 {
		t.Errorf("unexpected cart after remove: %+v", cart.Items)
	}

	// Removing again is a no-op, not an error, and still rewrites the key.
	before := kv.setCalls
	cart, err = store.RemoveItem(ctx, "g-1", 5)
	if err != nil {
		t.Fatalf("second RemoveItem() error = %v", err)
	}
	if len(cart.Items) != 1 {
		t.Errorf("second remove changed the cart: %+v", cart.Items)
	}
	if kv.setCalls != before+1 {
		t.Errorf("remove of absent line should still rewrite, setCalls = %d", kv.setCalls)
	}
}

func TestStore_WritesResetTTL(t *testing.T) {
	kv := newFakeKV()
	ttl := 7 * 24 * time.Hour
	store := New(kv, nil, Config{TTL: ttl, MaxItems: 20, MaxQuantity: 20}, testLogger())
	ctx := context.Background()

	if _, err := store.AddItem(ctx, "g-1", 5, 1); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if got := kv.ttls[defaultKeyPrefix+"g-1"]; got != ttl {
		t.Errorf("TTL after add = %v, want %v", got, ttl)
	}

	// Simulate an aged key, then touch the cart. The full TTL comes back.
	kv.ttls[defaultKeyPrefix+"g-1"] = time.Hour
	if _, err := store.SetQuantity(ctx, "g-1", 5, 2); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if got := kv.ttls[defaultKeyPrefix+"g-1"]; got != ttl {
		t.Errorf("TTL after update = %v, want %v", got, ttl)
	}
}

func TestStore_Delete(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)
	ctx := context.Background()

	mustStoreCart(t, kv, domain.GuestCart{GuestID: "g-1", Items: []domain.GuestCartItem{{BookID: 5, Quantity: 1}}})

	existed, err := store.Delete(ctx, "g-1")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !existed {
		t.Error("Delete() = false, want true for present key")
	}

	existed, err = store.Delete(ctx, "g-1")
	if err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if existed {
		t.Error("Delete() = true, want false for absent key")
	}
}

func TestStore_Render(t *testing.T) {
	kv := newFakeKV()
	stock := int64(10)
	pricing := pricingFunc(func(ctx context.Context, ids []int64) (map[int64]domain.Book, error) {
		// Book 7 is unknown to the catalog.
		return map[int64]domain.Book{
			5: {BookID: 5, Title: "The Go Programming Language", SalePrice: 13500, Stock: &stock, Status: domain.BookStatusSell},
		}, nil
	})
	store := newTestStore(kv, pricing)

	mustStoreCart(t, kv, domain.GuestCart{
		GuestID: "g-1",
		Items:   []domain.GuestCartItem{{BookID: 5, Quantity: 2}, {BookID: 7, Quantity: 1}},
	})

	rendered, err := store.Render(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(rendered.Items) != 2 {
		t.Fatalf("rendered %d items, want 2", len(rendered.Items))
	}

	resolved := rendered.Items[0]
	if resolved.Title == nil || resolved.SalePrice == nil || *resolved.SalePrice != 13500 {
		t.Errorf("resolved line missing catalog data: %+v", resolved)
	}

	unknown := rendered.Items[1]
	if unknown.Title != nil || unknown.SalePrice != nil || unknown.Stock != nil {
		t.Errorf("unknown book should keep nil display fields: %+v", unknown)
	}
	if unknown.Quantity != 1 {
		t.Errorf("unknown line quantity = %d, want 1", unknown.Quantity)
	}
}

func TestStore_RenderDegradesOnCatalogOutage(t *testing.T) {
	kv := newFakeKV()
	pricing := pricingFunc(func(ctx context.Context, ids []int64) (map[int64]domain.Book, error) {
		return nil, errors.New("catalog unreachable")
	})
	store := newTestStore(kv, pricing)

	mustStoreCart(t, kv, domain.GuestCart{
		GuestID: "g-1",
		Items:   []domain.GuestCartItem{{BookID: 5, Quantity: 2}},
	})

	rendered, err := store.Render(context.Background(), "g-1")
	if err != nil {
		t.Fatalf("Render() should not fail on catalog outage, got %v", err)
	}
	if len(rendered.Items) != 1 {
		t.Fatalf("rendered %d items, want 1", len(rendered.Items))
	}
	if rendered.Items[0].Title != nil {
		t.Error("degraded line should have nil title")
	}
}

// Two actors reading the same cart and writing back independently lose one
// of the writes; mutations rewrite the whole aggregate with no concurrency
// control. This pins the current last-writer-wins behavior.
func TestStore_ConcurrentWritersLastWriterWins(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv, nil)
	ctx := context.Background()

	if _, err := store.AddItem(ctx, "g-1", 5, 1); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	// Writer A reads the cart, then stalls. Writer B adds book 6 meanwhile.
	stale := kv.data[defaultKeyPrefix+"g-1"]
	if _, err := store.AddItem(ctx, "g-1", 6, 1); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	// Writer A resumes from its stale read and rewrites the aggregate.
	kv.data[defaultKeyPrefix+"g-1"] = stale

	final, err := store.Get(ctx, "g-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if final.Find(6) != nil {
		t.Error("expected writer B's line to be lost to the stale rewrite")
	}
	if final.Find(5) == nil {
		t.Error("writer A's view of book 5 should survive")
	}
}

func TestStore_StoreFailuresSurfaceAsInternal(t *testing.T) {
	kv := newFakeKV()
	kv.getErr = errors.New("connection reset")
	store := newTestStore(kv, nil)

	_, err := store.Get(context.Background(), "g-1")
	if err == nil {
		t.Fatal("Get() should fail when the cache fails")
	}
	if code := domain.ErrorCode(err); code != domain.EINTERNAL {
		t.Errorf("ErrorCode = %q, want EINTERNAL", code)
	}
}
