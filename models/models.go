package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// TrackedBoard represents a motherboard listing being monitored for price
// and availability changes.
type TrackedBoard struct {
	ID            int             `json:"id" db:"id"`
	URL           string          `json:"url" db:"url"`
	Name          string          `json:"name" db:"name"`
	ModelKey      string          `json:"model_key" db:"model_key"`
	Socket        string          `json:"socket" db:"socket"`
	Chipset       string          `json:"chipset" db:"chipset"`
	RAMSpeedMHz   int             `json:"ram_speed_mhz" db:"ram_speed_mhz"`
	FormFactor    string          `json:"form_factor" db:"form_factor"`
	Category      string          `json:"category" db:"category"`
	CurrentPrice  sql.NullFloat64 `json:"current_price" db:"current_price"`
	BasePrice     sql.NullFloat64 `json:"base_price" db:"base_price"`
	IsOnSale      bool            `json:"is_on_sale" db:"is_on_sale"`
	IsAvailable   bool            `json:"is_available" db:"is_available"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	LastChecked   *time.Time      `json:"last_checked" db:"last_checked"`
	LastFailedAt  *time.Time      `json:"last_failed_at" db:"last_failed_at"`
	RetryCount    int             `json:"retry_count" db:"retry_count"`
	NextRetryAt   *time.Time      `json:"next_retry_at" db:"next_retry_at"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	IsActive      bool            `json:"is_active" db:"is_active"`
}

// HasPrice returns true if the board currently has a resolved price.
func (b *TrackedBoard) HasPrice() bool {
	return b.CurrentPrice.Valid
}

// GetCurrentPrice returns the current price as float64, or 0 if NULL.
func (b *TrackedBoard) GetCurrentPrice() float64 {
	if b.CurrentPrice.Valid {
		return b.CurrentPrice.Float64
	}
	return 0.0
}

// CanRetry returns true if the board's failed check can be retried now.
func (b *TrackedBoard) CanRetry() bool {
	if b.NextRetryAt == nil {
		return true
	}
	return time.Now().After(*b.NextRetryAt)
}

// ShouldRetry returns true if the board has a failed check eligible for retry.
func (b *TrackedBoard) ShouldRetry() bool {
	return b.LastFailedAt != nil && b.CanRetry() && b.RetryCount < 5
}

// GetRetryDelay returns the delay before the next revisit based on how
// often the board has already failed.
func (b *TrackedBoard) GetRetryDelay() time.Duration {
	switch b.RetryCount {
	case 0:
		return 10 * time.Minute
	case 1:
		return 30 * time.Minute
	case 2:
		return 1 * time.Hour
	case 3:
		return 3 * time.Hour
	case 4:
		return 6 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// MarshalJSON renders NULL prices as JSON null instead of the sql.Null wrapper.
func (b *TrackedBoard) MarshalJSON() ([]byte, error) {
	type Alias TrackedBoard
	return json.Marshal(&struct {
		*Alias
		CurrentPrice *float64 `json:"current_price"`
		BasePrice    *float64 `json:"base_price"`
	}{
		Alias:        (*Alias)(b),
		CurrentPrice: nullFloatPtr(b.CurrentPrice),
		BasePrice:    nullFloatPtr(b.BasePrice),
	})
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if v.Valid {
		f := v.Float64
		return &f
	}
	return nil
}

// PriceHistory represents one resolved price point in time.
type PriceHistory struct {
	ID          int       `json:"id" db:"id"`
	BoardID     int       `json:"board_id" db:"board_id"`
	Price       float64   `json:"price" db:"price"`
	BasePrice   float64   `json:"base_price" db:"base_price"`
	IsOnSale    bool      `json:"is_on_sale" db:"is_on_sale"`
	IsAvailable bool      `json:"is_available" db:"is_available"`
	Method      string    `json:"method" db:"method"`
	CheckedAt   time.Time `json:"checked_at" db:"checked_at"`
}

// Override actions consulted before the engine runs for a board.
const (
	OverrideSkip       = "skip"
	OverrideReplaceURL = "replace_url"
)

// BoardOverride is a declarative per-board directive: skip the board
// entirely, or resolve a replacement URL instead of the stored one.
type BoardOverride struct {
	BoardID        int       `json:"board_id" db:"board_id"`
	Action         string    `json:"action" db:"action"`
	ReplacementURL string    `json:"replacement_url" db:"replacement_url"`
	Note           string    `json:"note" db:"note"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// PriceQuery is the engine's input: one absolute product-page URL.
type PriceQuery struct {
	URL      string `json:"url"`
	Category string `json:"category"`
}

// ExtractionResult is the single structured outcome of resolving one
// product page. Success means a definite conclusion was reached: either a
// price, or a confirmed-unavailable state. Success false means the page
// was indeterminate, not that the product does not exist.
type ExtractionResult struct {
	Success              bool     `json:"success"`
	CurrentPrice         *float64 `json:"current_price"`
	BasePrice            *float64 `json:"base_price"`
	SalePrice            *float64 `json:"sale_price"`
	IsOnSale             bool     `json:"is_on_sale"`
	IsAvailable          bool     `json:"is_available"`
	UnavailabilityReason string   `json:"unavailability_reason,omitempty"`
	DetectionMethod      string   `json:"detection_method"`
	PriceSource          string   `json:"price_source,omitempty"`
	ImageURL             string   `json:"image_url,omitempty"`
	DebugTrace           []string `json:"debug_trace,omitempty"`
}

// AddBoardRequest is the request body for tracking a new board.
type AddBoardRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// SetOverrideRequest is the request body for installing a board override.
type SetOverrideRequest struct {
	Action         string `json:"action"`
	ReplacementURL string `json:"replacement_url"`
	Note           string `json:"note"`
}
