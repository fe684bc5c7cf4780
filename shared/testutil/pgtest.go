// Package testutil provides shared infrastructure for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/distributed-fraud-detection/fraud-detection/migrations"
	_ "github.com/lib/pq"
)

var tables = []string{"transactions", "risk_profiles", "fraud_cases", "notifications", "aggregated_metrics"}

// PGTest opens the database in POSTGRES_URL, applies every migration and
// returns the handle. The application tables are truncated on cleanup.
// The test is skipped when POSTGRES_URL is not set.
func PGTest(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("POSTGRES_URL")
	if dbURL == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("pgtest: open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		t.Fatalf("pgtest: connect to database: %v", err)
	}

	ctx := context.Background()
	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		t.Fatalf("pgtest: run migrations: %v", err)
	}
	truncateAll(ctx, db)

	t.Cleanup(func() {
		truncateAll(ctx, db)
		_ = db.Close()
	})
	return db
}

func truncateAll(ctx context.Context, db *sql.DB) {
	for _, table := range tables {
		_, _ = db.ExecContext(ctx, "TRUNCATE "+table) // #nosec G202 -- fixed table list
	}
}
