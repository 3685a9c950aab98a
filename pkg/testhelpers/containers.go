// Package testhelpers starts throwaway databases for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresImage is the image used for the Business One replica container.
const PostgresImage = "postgres:16-alpine"

// B1Schema is the schema the seeded sample tables live in.
const B1Schema = "SBODEMOUS"

const (
	testUser     = "b1"
	testPassword = "test_password"
	testDatabase = "b1_replica"
)

// TestDB holds a shared test database container and connection details.
type TestDB struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
}

var (
	sharedTestDB     *TestDB
	sharedTestDBOnce sync.Once
	sharedTestDBErr  error
)

// GetTestDB returns a shared PostgreSQL container seeded with a small subset
// of Business One tables (OCRD, OINV, INV1). The container is created once
// and reused across all tests in the run.
func GetTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestDBOnce.Do(func() {
		sharedTestDB, sharedTestDBErr = setupTestDB()
	})

	if sharedTestDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedTestDBErr)
	}

	return sharedTestDB
}

func setupTestDB() (*TestDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       testDatabase,
			"POSTGRES_USER":     testUser,
			"POSTGRES_PASSWORD": testPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	port, err := strconv.Atoi(mapped.Port())
	if err != nil {
		return nil, fmt.Errorf("invalid container port %q: %w", mapped.Port(), err)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		testUser, testPassword, host, port, testDatabase)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection with retry
	for i := 0; i < 10; i++ {
		if err = pool.Ping(ctx); err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("database never became reachable: %w", err)
	}

	if err := seedB1Tables(ctx, pool); err != nil {
		return nil, err
	}

	return &TestDB{
		Container: container,
		Pool:      pool,
		Host:      host,
		Port:      port,
		User:      testUser,
		Password:  testPassword,
		Database:  testDatabase,
	}, nil
}

var seedStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS "SBODEMOUS"`,
	`CREATE TABLE "SBODEMOUS"."OCRD" (
		"CardCode" varchar(15) PRIMARY KEY,
		"CardName" varchar(100) NOT NULL,
		"CardType" char(1) NOT NULL,
		"Balance"  numeric(19,6) NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE "SBODEMOUS"."OINV" (
		"DocEntry" integer PRIMARY KEY,
		"DocNum"   integer NOT NULL,
		"CardCode" varchar(15) NOT NULL REFERENCES "SBODEMOUS"."OCRD"("CardCode"),
		"DocDate"  date NOT NULL,
		"DocTotal" numeric(19,6) NOT NULL,
		"CANCELED" char(1) NOT NULL DEFAULT 'N'
	)`,
	`CREATE TABLE "SBODEMOUS"."INV1" (
		"DocEntry" integer NOT NULL REFERENCES "SBODEMOUS"."OINV"("DocEntry"),
		"LineNum"  integer NOT NULL,
		"ItemCode" varchar(50) NOT NULL,
		"Quantity" numeric(19,6) NOT NULL,
		"LineTotal" numeric(19,6) NOT NULL,
		PRIMARY KEY ("DocEntry", "LineNum")
	)`,
	`INSERT INTO "SBODEMOUS"."OCRD" VALUES
		('C20000', 'Norm Thompson', 'C', 1250.50),
		('C30000', 'Microchips', 'C', 0),
		('V10000', 'Acme Supplies', 'S', 300)`,
	`INSERT INTO "SBODEMOUS"."OINV" VALUES
		(1, 1001, 'C20000', '2024-01-15', 500.00, 'N'),
		(2, 1002, 'C20000', '2024-02-10', 750.50, 'N'),
		(3, 1003, 'C30000', '2024-02-20', 120.00, 'Y')`,
	`INSERT INTO "SBODEMOUS"."INV1" VALUES
		(1, 0, 'A00001', 5, 500.00),
		(2, 0, 'A00001', 3, 300.00),
		(2, 1, 'A00002', 9, 450.50),
		(3, 0, 'A00002', 2, 120.00)`,
}

func seedB1Tables(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range seedStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed test data: %w", err)
		}
	}
	return nil
}
