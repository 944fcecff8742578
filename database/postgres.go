package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDatabase initializes the database connection
func InitDatabase() error {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	var err error
	DB, err = sql.Open("postgres", dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %v", err)
	}

	if err := DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %v", err)
	}

	log.Println("Successfully connected to database")
	return nil
}

// CreateTables creates the necessary tables if they don't exist
func CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tracked_boards (
			id SERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			model_key TEXT NOT NULL DEFAULT '',
			socket VARCHAR(20) DEFAULT '',
			chipset VARCHAR(20) DEFAULT '',
			ram_speed_mhz INTEGER DEFAULT 0,
			form_factor VARCHAR(20) DEFAULT '',
			category VARCHAR(40) DEFAULT 'motherboard',
			current_price DECIMAL(10,2),
			base_price DECIMAL(10,2),
			is_on_sale BOOLEAN DEFAULT FALSE,
			is_available BOOLEAN DEFAULT TRUE,
			image_url TEXT DEFAULT '',
			last_checked TIMESTAMP,
			last_failed_at TIMESTAMP,
			retry_count INTEGER DEFAULT 0,
			next_retry_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			is_active BOOLEAN DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS price_history (
			id SERIAL PRIMARY KEY,
			board_id INTEGER REFERENCES tracked_boards(id) ON DELETE CASCADE,
			price DECIMAL(10,2) NOT NULL,
			base_price DECIMAL(10,2),
			is_on_sale BOOLEAN DEFAULT FALSE,
			is_available BOOLEAN DEFAULT TRUE,
			method VARCHAR(40) DEFAULT '',
			checked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS board_overrides (
			board_id INTEGER PRIMARY KEY REFERENCES tracked_boards(id) ON DELETE CASCADE,
			action VARCHAR(20) NOT NULL CHECK (action IN ('skip', 'replace_url')),
			replacement_url TEXT DEFAULT '',
			note TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tracked_boards_retry ON tracked_boards (last_failed_at, next_retry_at, retry_count)
		WHERE last_failed_at IS NOT NULL AND retry_count < 5`,
		`CREATE INDEX IF NOT EXISTS idx_tracked_boards_model ON tracked_boards (model_key) WHERE is_active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_board ON price_history (board_id, checked_at)`,
	}

	for _, query := range queries {
		_, err := DB.Exec(query)
		if err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}

// CloseDatabase closes the database connection
func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
