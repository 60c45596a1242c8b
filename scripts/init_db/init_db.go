package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"racing-telemetry/ingestion/internal/store"
)

// Prepares TimescaleDB for the postgres:// delivery backend.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	connStr := os.Getenv("STREAM_CONNECTION_STRING")
	if !strings.HasPrefix(connStr, "postgres://") && !strings.HasPrefix(connStr, "postgresql://") {
		log.Fatalf("STREAM_CONNECTION_STRING must be a postgres:// URL for this script, got %q", scheme(connStr))
	}

	ctx := context.Background()

	fmt.Println("Connecting to TimescaleDB...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure TimescaleDB is running:\n  docker-compose up -d timescaledb", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_extension(ctx, conn)
	step2_events_table(ctx, conn)
	step3_indexes(ctx, conn)
	step4_verify(ctx, conn)

	fmt.Println("\n✅ Database initialised successfully")
	fmt.Println("   Run next: go run ./cmd/ingestion")
}

// ─────────────────────────────────────────────────────────────
// Step 1: Extension
// ─────────────────────────────────────────────────────────────
func step1_extension(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: Extension ───────────────────────────")

	execOrFatal(ctx, conn,
		"CREATE EXTENSION IF NOT EXISTS timescaledb CASCADE;",
		"timescaledb extension",
	)
}

// ─────────────────────────────────────────────────────────────
// Step 2: telemetry_events table
// ─────────────────────────────────────────────────────────────
func step2_events_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: " + store.EventsTable + " table ─────────────")

	execOrFatal(ctx, conn, `
		CREATE TABLE IF NOT EXISTS `+store.EventsTable+` (

			-- Time the batch was written; the envelope carries the UDP receive time
			received_at   TIMESTAMPTZ NOT NULL,

			-- Destination stream: motion, lap-data, game-telemetry, ...
			stream        TEXT        NOT NULL,

			-- application/json or application/msgpack
			content_type  TEXT        NOT NULL,

			-- Encoded envelope, opaque to the database
			payload       BYTEA       NOT NULL
		);
	`, store.EventsTable+" table created")

	// Race sessions produce dense bursts; 1-day chunks keep recent data in one chunk
	execOrFatal(ctx, conn, `
		SELECT create_hypertable(
			'`+store.EventsTable+`',
			'received_at',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		);
	`, store.EventsTable+" converted to hypertable")
}

// ─────────────────────────────────────────────────────────────
// Step 3: Indexes
// ─────────────────────────────────────────────────────────────
func step3_indexes(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 3: Indexes ─────────────────────────────")

	indexes := []struct {
		name string
		sql  string
		why  string
	}{
		{
			name: "idx_events_stream_time",
			sql: `CREATE INDEX IF NOT EXISTS idx_events_stream_time
				  ON ` + store.EventsTable + ` (stream, received_at DESC);`,
			why: "query: recent events of one stream",
		},
	}

	for _, idx := range indexes {
		execOrFatal(ctx, conn, idx.sql,
			fmt.Sprintf("%-40s ← %s", idx.name, idx.why),
		)
	}
}

// ─────────────────────────────────────────────────────────────
// Step 4: Verify everything was created
// ─────────────────────────────────────────────────────────────
func step4_verify(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 4: Verification ────────────────────────")

	var hypertableName string
	err := conn.QueryRow(ctx, `
		SELECT hypertable_name
		FROM timescaledb_information.hypertables
		WHERE hypertable_name = $1
	`, store.EventsTable).Scan(&hypertableName)
	if err != nil {
		log.Fatalf("%s is not a hypertable: %v", store.EventsTable, err)
	}
	fmt.Printf("  ✓ hypertable: %s (time partitioned)\n", hypertableName)

	var indexCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM pg_indexes
		WHERE tablename = $1
		AND indexname LIKE 'idx_%'
	`, store.EventsTable).Scan(&indexCount)
	if err != nil {
		log.Fatalf("Index check failed: %v", err)
	}
	fmt.Printf("  ✓ indexes created: %d\n", indexCount)
}

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func execOrFatal(ctx context.Context, conn *pgx.Conn, sql, label string) {
	_, err := conn.Exec(ctx, sql)
	if err != nil {
		log.Fatalf("FAILED: %s\nError: %v\nSQL: %s", label, err, sql)
	}
	fmt.Printf("  ✓ %s\n", label)
}

// scheme keeps credentials out of the error message.
func scheme(connStr string) string {
	if i := strings.Index(connStr, "://"); i > 0 {
		return connStr[:i] + "://…"
	}
	if connStr == "" {
		return ""
	}
	return "…"
}
