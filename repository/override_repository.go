package repository

import (
	"database/sql"
	"fmt"
	"time"

	"boardtrack/database"
	"boardtrack/models"
)

// OverrideRepository manages the declarative per-board override table
// consulted before the generic pipeline runs.
type OverrideRepository struct{}

func NewOverrideRepository() *OverrideRepository {
	return &OverrideRepository{}
}

// SetOverride installs or replaces the override for a board.
func (r *OverrideRepository) SetOverride(boardID int, action, replacementURL, note string) (*models.BoardOverride, error) {
	if action != models.OverrideSkip && action != models.OverrideReplaceURL {
		return nil, fmt.Errorf("unknown override action %q", action)
	}
	if action == models.OverrideReplaceURL && replacementURL == "" {
		return nil, fmt.Errorf("replace_url override requires a replacement URL")
	}

	query := `
		INSERT INTO board_overrides (board_id, action, replacement_url, note, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (board_id) DO UPDATE
		SET action = EXCLUDED.action, replacement_url = EXCLUDED.replacement_url,
		    note = EXCLUDED.note, created_at = EXCLUDED.created_at
		RETURNING board_id, action, replacement_url, note, created_at
	`
	var o models.BoardOverride
	err := database.DB.QueryRow(query, boardID, action, replacementURL, note, time.Now()).
		Scan(&o.BoardID, &o.Action, &o.ReplacementURL, &o.Note, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set override: %v", err)
	}
	return &o, nil
}

// GetOverride returns the override for a board, or nil if none exists.
func (r *OverrideRepository) GetOverride(boardID int) (*models.BoardOverride, error) {
	query := `
		SELECT board_id, action, replacement_url, note, created_at
		FROM board_overrides
		WHERE board_id = $1
	`
	var o models.BoardOverride
	err := database.DB.QueryRow(query, boardID).
		Scan(&o.BoardID, &o.Action, &o.ReplacementURL, &o.Note, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get override: %v", err)
	}
	return &o, nil
}

// DeleteOverride removes the override for a board.
func (r *OverrideRepository) DeleteOverride(boardID int) error {
	if _, err := database.DB.Exec(`DELETE FROM board_overrides WHERE board_id = $1`, boardID); err != nil {
		return fmt.Errorf("failed to delete override: %v", err)
	}
	return nil
}
