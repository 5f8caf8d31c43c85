// Package catalog talks to the remote book service that owns titles,
// prices and stock. The cart service never stores catalog data of record;
// it resolves books on demand, one batch call per operation.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dodream/cart/internal/domain"
)

// Client is an HTTP client for the book service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// GetBook resolves a single book by id.
// Returns a domain not-found error when the book service answers 404.
func (c *Client) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	endpoint := fmt.Sprintf("%s/public/books/%d", c.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build book request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("book service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.NotFound("catalog.get", "book", strconv.FormatInt(id, 10))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("book service returned status %d", resp.StatusCode)
	}

	var book domain.Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, fmt.Errorf("failed to decode book response: %w", err)
	}

	return &book, nil
}

// ResolveBatch resolves a set of book ids in one call.
// The returned map may be partial: ids the catalog does not know are simply
// absent. Callers decide whether a gap is tolerable (rendering) or fatal
// (merging).
func (c *Client) ResolveBatch(ctx context.Context, ids []int64) (map[int64]domain.Book, error) {
	if len(ids) == 0 {
		return map[int64]domain.Book{}, nil
	}

	params := make([]string, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		params = append(params, strconv.FormatInt(id, 10))
	}

	endpoint := fmt.Sprintf("%s/public/books?%s", c.baseURL, url.Values{"ids": {strings.Join(params, ",")}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build book batch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("book service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("book service returned status %d", resp.StatusCode)
	}

	var books []domain.Book
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		return nil, fmt.Errorf("failed to decode book batch response: %w", err)
	}

	result := make(map[int64]domain.Book, len(books))
	for _, b := range books {
		result[b.BookID] = b
	}

	return result, nil
}
