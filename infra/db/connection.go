package db

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

const maxOpenConns = 25

const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

// Connect opens a pool through either lib/pq ("postgres") or the pgx stdlib
// adapter ("pgx"). Both accept the same keyword/value DSN.
func Connect(driver, host string, port int, user, password, dbname string) (*sql.DB, error) {
	if driver == "" {
		driver = DriverPQ
	}
	if driver != DriverPQ && driver != DriverPGX {
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	database.SetMaxOpenConns(maxOpenConns)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return database, nil
}
