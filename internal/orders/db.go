package orders

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adyen/shopcheck/internal/config"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Open connects to the storefront database with the storefront's pool settings
func Open(ctx context.Context, cfg *config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("host", cfg.Host).Str("db", cfg.Database).Msg("connected to storefront database")
	return db, nil
}

// Schema is the storefront orders table. Checks only read it; fixtures and
// integration tests create it.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	reference VARCHAR(255) UNIQUE NOT NULL,
	amount INTEGER NOT NULL,
	currency VARCHAR(3) NOT NULL,
	status VARCHAR(50) NOT NULL,
	product_name VARCHAR(255) NOT NULL,
	psp_reference VARCHAR(255),
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_orders_reference ON orders(reference);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

// EnsureSchema creates the orders table if it does not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create orders table: %w", err)
	}
	return nil
}
