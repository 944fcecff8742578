package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryDelayEscalates(t *testing.T) {
	board := &TrackedBoard{}

	delays := []time.Duration{
		10 * time.Minute,
		30 * time.Minute,
		time.Hour,
		3 * time.Hour,
		6 * time.Hour,
		24 * time.Hour,
	}
	for count, want := range delays {
		board.RetryCount = count
		assert.Equal(t, want, board.GetRetryDelay(), "retry count %d", count)
	}

	board.RetryCount = 12
	assert.Equal(t, 24*time.Hour, board.GetRetryDelay())
}

func TestShouldRetry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	healthy := &TrackedBoard{}
	assert.False(t, healthy.ShouldRetry(), "board without a failure never retries")

	due := &TrackedBoard{LastFailedAt: &past, NextRetryAt: &past, RetryCount: 2}
	assert.True(t, due.ShouldRetry())

	notYet := &TrackedBoard{LastFailedAt: &past, NextRetryAt: &future, RetryCount: 2}
	assert.False(t, notYet.ShouldRetry())

	exhausted := &TrackedBoard{LastFailedAt: &past, NextRetryAt: &past, RetryCount: 5}
	assert.False(t, exhausted.ShouldRetry())
}

func TestMarshalJSONNullPrices(t *testing.T) {
	board := &TrackedBoard{
		ID:          1,
		URL:         "https://example.com/dp/B0TESTBOARD",
		IsAvailable: false,
	}

	data, err := json.Marshal(board)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	// An unpurchasable board serializes its prices as plain null, never as
	// the sql.Null wrapper object.
	assert.Nil(t, decoded["current_price"])
	assert.Nil(t, decoded["base_price"])
	assert.Equal(t, false, decoded["is_available"])
}

func TestMarshalJSONWithPrices(t *testing.T) {
	board := &TrackedBoard{
		ID:           2,
		CurrentPrice: sql.NullFloat64{Float64: 279.99, Valid: true},
		BasePrice:    sql.NullFloat64{Float64: 439.99, Valid: true},
		IsOnSale:     true,
		IsAvailable:  true,
	}

	data, err := json.Marshal(board)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.InDelta(t, 279.99, decoded["current_price"], 0.001)
	assert.InDelta(t, 439.99, decoded["base_price"], 0.001)
	assert.Equal(t, true, decoded["is_on_sale"])
}
