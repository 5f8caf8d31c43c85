package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.GuestCart.TTL)
	assert.Equal(t, 20, cfg.GuestCart.MaxItems)
	assert.Equal(t, int64(20), cfg.GuestCart.MaxQuantity)
	assert.Equal(t, 3, cfg.Evict.MaxRetry)
	assert.Equal(t, 500*time.Millisecond, cfg.Evict.Delay)
	assert.Equal(t, uint16(3000), cfg.Port)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("CART_TTL", "1h")
	t.Setenv("CART_MAX_ITEMS", "5")
	t.Setenv("EVICT_MAX_RETRY", "10")
	t.Setenv("EVICT_RETRY_DELAY", "50ms")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.GuestCart.TTL)
	assert.Equal(t, 5, cfg.GuestCart.MaxItems)
	assert.Equal(t, 10, cfg.Evict.MaxRetry)
	assert.Equal(t, 50*time.Millisecond, cfg.Evict.Delay)
}

func TestNewConfig_RejectsNonPositiveBounds(t *testing.T) {
	t.Setenv("CART_MAX_ITEMS", "-1")

	_, err := NewConfig()
	require.Error(t, err)
}

func TestNewConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CART_TTL", "soon")
	t.Setenv("CART_MAX_ITEMS", "plenty")
	t.Setenv("ENV", "staging")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 7*24*time.Hour, cfg.GuestCart.TTL)
	assert.Equal(t, 20, cfg.GuestCart.MaxItems)
	assert.Equal(t, "prod", cfg.Env)
}
