// Package testutil provides isolated Postgres schemas for order integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/adyen/shopcheck/internal/config"
	"github.com/adyen/shopcheck/internal/models"
	"github.com/adyen/shopcheck/internal/orders"
	"github.com/lib/pq"
)

// TestDatabase represents an isolated test database
type TestDatabase struct {
	DB         *sql.DB
	SchemaName string
	masterDB   *sql.DB
}

// SetupTestDatabase creates an isolated schema with the orders table and
// drops it when the test ends
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	connConfig, err := config.LoadPostgresConfig(func(key string) string {
		switch key {
		case "POSTGRES_USER":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_PASSWORD":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_DB":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_HOSTNAME":
			return getEnvOrDefault(key, "localhost")
		default:
			return os.Getenv(key)
		}
	})
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}

	ctx := context.Background()
	masterDB, err := orders.Open(ctx, connConfig)
	if err != nil {
		t.Fatalf("Failed to connect to master database: %v", err)
	}

	schemaName := fmt.Sprintf("test_schema_%d_%d", time.Now().UnixNano(), rand.Intn(10000))
	if _, err := masterDB.Exec("CREATE SCHEMA " + pq.QuoteIdentifier(schemaName)); err != nil {
		masterDB.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	td := &TestDatabase{SchemaName: schemaName, masterDB: masterDB}
	t.Cleanup(func() { td.Teardown(t) })

	testConfig := *connConfig
	testConfig.SearchPath = schemaName
	td.DB, err = orders.Open(ctx, &testConfig)
	if err != nil {
		t.Fatalf("Failed to connect to test schema: %v", err)
	}
	td.DB.SetMaxOpenConns(5)
	td.DB.SetMaxIdleConns(2)

	if err := orders.EnsureSchema(ctx, td.DB); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return td
}

// InsertOrder writes an order fixture the way the storefront checkout does
func (td *TestDatabase) InsertOrder(t *testing.T, order models.Order) {
	t.Helper()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	_, err := td.DB.Exec(`
		INSERT INTO orders (id, reference, amount, currency, status, product_name, psp_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9)`,
		order.ID, order.Reference, order.Amount, order.Currency, order.Status,
		order.ProductName, order.PSPReference, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("Failed to insert order %s: %v", order.Reference, err)
	}
}

// UpdateStatus moves an order to a new status, as the payment flow would
func (td *TestDatabase) UpdateStatus(t *testing.T, reference string, status models.OrderStatus) {
	t.Helper()

	res, err := td.DB.Exec(`UPDATE orders SET status = $1, updated_at = $2 WHERE reference = $3`,
		status, time.Now(), reference)
	if err != nil {
		t.Fatalf("Failed to update order %s: %v", reference, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		t.Fatalf("Order %s not found", reference)
	}
}

// Teardown cleans up the test database schema
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
		td.DB = nil
	}

	if td.masterDB != nil {
		_, err := td.masterDB.Exec("DROP SCHEMA IF EXISTS " + pq.QuoteIdentifier(td.SchemaName) + " CASCADE")
		if err != nil {
			t.Logf("Warning: Failed to drop test schema %s: %v", td.SchemaName, err)
		}
		td.masterDB.Close()
		td.masterDB = nil
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
