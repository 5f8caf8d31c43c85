package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dodream/cart/internal/domain"
	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for request bodies.
var validate = validator.New()

// cartItemRequest is the body for adding a line to a cart (member or guest).
type cartItemRequest struct {
	BookID   int64 `json:"bookId" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gte=1"`
}

// quantityRequest is the body for overwriting a line's quantity.
type quantityRequest struct {
	Quantity int64 `json:"quantity" validate:"required,gte=1"`
}

// decodeJSON decodes and validates a request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("request.decode", "malformed request body")
	}
	if err := validate.Struct(v); err != nil {
		return domain.WrapError(err, domain.EINVALID, "request.validate", "invalid request body")
	}
	return nil
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Errorf(domain.EINVALID, "request.path", "invalid %s: %q", name, raw)
	}
	return id, nil
}
