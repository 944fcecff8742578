package repository

import (
	"database/sql"
	"fmt"
	"time"

	"boardtrack/database"
	"boardtrack/models"
)

type BoardRepository struct{}

func NewBoardRepository() *BoardRepository {
	return &BoardRepository{}
}

const boardColumns = `id, url, name, model_key, socket, chipset, ram_speed_mhz, form_factor, category,
	current_price, base_price, is_on_sale, is_available, image_url,
	last_checked, last_failed_at, retry_count, next_retry_at, created_at, updated_at, is_active`

func scanBoard(row interface{ Scan(...interface{}) error }) (*models.TrackedBoard, error) {
	var b models.TrackedBoard
	err := row.Scan(
		&b.ID, &b.URL, &b.Name, &b.ModelKey, &b.Socket, &b.Chipset, &b.RAMSpeedMHz, &b.FormFactor, &b.Category,
		&b.CurrentPrice, &b.BasePrice, &b.IsOnSale, &b.IsAvailable, &b.ImageURL,
		&b.LastChecked, &b.LastFailedAt, &b.RetryCount, &b.NextRetryAt, &b.CreatedAt, &b.UpdatedAt, &b.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// AddBoard adds a new board to track. Returns an error if the URL or the
// normalized model key already belongs to an active board.
func (r *BoardRepository) AddBoard(url, name string, specs models.TrackedBoard) (*models.TrackedBoard, error) {
	if dup, err := r.FindDuplicate(url, specs.ModelKey); err != nil {
		return nil, err
	} else if dup != nil {
		return nil, fmt.Errorf("duplicate of tracked board %d (%s)", dup.ID, dup.Name)
	}

	query := `
		INSERT INTO tracked_boards (url, name, model_key, socket, chipset, ram_speed_mhz, form_factor, category, created_at, updated_at, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9, 0)
		RETURNING ` + boardColumns

	now := time.Now()
	return scanBoard(database.DB.QueryRow(query,
		url, name, specs.ModelKey, specs.Socket, specs.Chipset, specs.RAMSpeedMHz, specs.FormFactor, specs.Category, now))
}

// FindDuplicate looks for an active board with the same URL or model key.
func (r *BoardRepository) FindDuplicate(url, modelKey string) (*models.TrackedBoard, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM tracked_boards
		WHERE is_active = true AND (url = $1 OR (model_key <> '' AND model_key = $2))
		LIMIT 1
	`
	board, err := scanBoard(database.DB.QueryRow(query, url, modelKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicates: %v", err)
	}
	return board, nil
}

// GetBoards returns all active tracked boards.
func (r *BoardRepository) GetBoards() ([]models.TrackedBoard, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM tracked_boards
		WHERE is_active = true
		ORDER BY created_at DESC
	`
	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracked boards: %v", err)
	}
	defer rows.Close()

	var boards []models.TrackedBoard
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %v", err)
		}
		boards = append(boards, *board)
	}
	return boards, rows.Err()
}

// GetBoardByID returns an active board by ID.
func (r *BoardRepository) GetBoardByID(id int) (*models.TrackedBoard, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM tracked_boards
		WHERE id = $1 AND is_active = true
	`
	board, err := scanBoard(database.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("board not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %v", err)
	}
	return board, nil
}

// ApplyResult persists an extraction result: updates the stored prices and
// availability, and appends a price-history entry when a price was resolved.
func (r *BoardRepository) ApplyResult(id int, result *models.ExtractionResult) error {
	if !result.Success {
		return r.MarkCheckFailed(id)
	}

	query := `
		UPDATE tracked_boards
		SET current_price = $2, base_price = $3, is_on_sale = $4, is_available = $5,
		    image_url = COALESCE(NULLIF($6, ''), image_url),
		    last_checked = $7, updated_at = $7,
		    last_failed_at = NULL, retry_count = 0, next_retry_at = NULL
		WHERE id = $1
	`
	now := time.Now()
	_, err := database.DB.Exec(query, id,
		nullableFloat(result.CurrentPrice), nullableFloat(result.BasePrice),
		result.IsOnSale, result.IsAvailable, result.ImageURL, now)
	if err != nil {
		return fmt.Errorf("failed to update board price: %v", err)
	}

	if result.CurrentPrice != nil {
		base := *result.CurrentPrice
		if result.BasePrice != nil {
			base = *result.BasePrice
		}
		history := `
			INSERT INTO price_history (board_id, price, base_price, is_on_sale, is_available, method, checked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		if _, err := database.DB.Exec(history, id,
			*result.CurrentPrice, base, result.IsOnSale, result.IsAvailable,
			result.DetectionMethod, now); err != nil {
			return fmt.Errorf("failed to add price history: %v", err)
		}
	}
	return nil
}

// MarkCheckFailed records a failed check and schedules the next revisit.
func (r *BoardRepository) MarkCheckFailed(id int) error {
	board, err := r.GetBoardByID(id)
	if err != nil {
		return err
	}
	next := time.Now().Add(board.GetRetryDelay())
	query := `
		UPDATE tracked_boards
		SET last_failed_at = $2, retry_count = retry_count + 1, next_retry_at = $3, updated_at = $2
		WHERE id = $1
	`
	if _, err := database.DB.Exec(query, id, time.Now(), next); err != nil {
		return fmt.Errorf("failed to mark check failed: %v", err)
	}
	return nil
}

// GetBoardsForRetry returns boards whose failed checks are due for revisit.
func (r *BoardRepository) GetBoardsForRetry() ([]models.TrackedBoard, error) {
	query := `
		SELECT ` + boardColumns + `
		FROM tracked_boards
		WHERE is_active = true AND last_failed_at IS NOT NULL AND retry_count < 5
		  AND (next_retry_at IS NULL OR next_retry_at <= CURRENT_TIMESTAMP)
		ORDER BY next_retry_at ASC NULLS FIRST
	`
	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get boards for retry: %v", err)
	}
	defer rows.Close()

	var boards []models.TrackedBoard
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %v", err)
		}
		boards = append(boards, *board)
	}
	return boards, rows.Err()
}

// GetPriceHistory returns the recorded price points for a board, newest first.
func (r *BoardRepository) GetPriceHistory(boardID, limit int) ([]models.PriceHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, board_id, price, base_price, is_on_sale, is_available, method, checked_at
		FROM price_history
		WHERE board_id = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`
	rows, err := database.DB.Query(query, boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %v", err)
	}
	defer rows.Close()

	var history []models.PriceHistory
	for rows.Next() {
		var h models.PriceHistory
		if err := rows.Scan(&h.ID, &h.BoardID, &h.Price, &h.BasePrice, &h.IsOnSale, &h.IsAvailable, &h.Method, &h.CheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %v", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// DeleteBoard deactivates a tracked board.
func (r *BoardRepository) DeleteBoard(id int) error {
	query := `UPDATE tracked_boards SET is_active = false, updated_at = $2 WHERE id = $1`
	if _, err := database.DB.Exec(query, id, time.Now()); err != nil {
		return fmt.Errorf("failed to delete board: %v", err)
	}
	return nil
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
