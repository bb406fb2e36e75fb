package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			name VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'USER',
			available_msat BIGINT NOT NULL DEFAULT 0 CHECK (available_msat >= 0),
			locked_msat BIGINT NOT NULL DEFAULT 0 CHECK (locked_msat >= 0),
			notify_address VARCHAR(255),
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create spaces table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS spaces (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			owner_id VARCHAR(36) REFERENCES users(id),
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create asks table. The favourite offer column has no foreign key:
	// offers reference asks, and a circular constraint would block inserts.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS asks (
			id VARCHAR(36) PRIMARY KEY,
			owner_id VARCHAR(36) NOT NULL REFERENCES users(id),
			space_id VARCHAR(36) NOT NULL REFERENCES spaces(id),
			kind VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'OPEN',
			title VARCHAR(255) NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			favourite_offer_id VARCHAR(36),
			deadline_at TIMESTAMP NOT NULL,
			accepted_deadline_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create bumps table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS bumps (
			id VARCHAR(36) PRIMARY KEY,
			ask_id VARCHAR(36) NOT NULL REFERENCES asks(id) ON DELETE CASCADE,
			bidder_id VARCHAR(36) NOT NULL REFERENCES users(id),
			amount_msat BIGINT NOT NULL CHECK (amount_msat > 0),
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create offers table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS offers (
			id VARCHAR(36) PRIMARY KEY,
			ask_id VARCHAR(36) NOT NULL REFERENCES asks(id) ON DELETE CASCADE,
			author_id VARCHAR(36) NOT NULL REFERENCES users(id),
			content TEXT NOT NULL DEFAULT '',
			obscured_key VARCHAR(255) NOT NULL,
			clear_key VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (ask_id, author_id)
		)
	`)
	if err != nil {
		return err
	}

	// Create transactions table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS transactions (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(36) REFERENCES users(id),
			kind VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
			target_msat BIGINT NOT NULL,
			settled_msat BIGINT NOT NULL DEFAULT 0,
			hash VARCHAR(128) NOT NULL,
			pay_request TEXT NOT NULL DEFAULT '',
			max_age_seconds BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			confirmed_at TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_asks_space_id ON asks(space_id)",
		"CREATE INDEX IF NOT EXISTS idx_asks_owner_id ON asks(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_bumps_ask_id ON bumps(ask_id)",
		"CREATE INDEX IF NOT EXISTS idx_bumps_bidder_id ON bumps(bidder_id)",
		"CREATE INDEX IF NOT EXISTS idx_offers_ask_id ON offers(ask_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_transactions_hash ON transactions(hash)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
