// internal/db/initdb.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/lib/pq"
)

// CreateDatabaseIfNotExists creates the target database when it is missing.
// It reports whether a database was created.
func CreateDatabaseIfNotExists(ctx context.Context, connString string) (bool, error) {
	dbName, err := extractDBName(connString)
	if err != nil {
		return false, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Connect to the default 'postgres' database to create our target database
	rootConnStr, err := replaceDBName(connString, "postgres")
	if err != nil {
		return false, fmt.Errorf("failed to create root connection string: %w", err)
	}

	db, err := sql.Open("postgres", rootConnStr)
	if err != nil {
		return false, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer db.Close()

	return createIfMissing(ctx, db, dbName)
}

func createIfMissing(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", dbName).Scan(&exists)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check if database exists: %w", err)
	}

	// CREATE DATABASE does not accept bind parameters.
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return false, fmt.Errorf("failed to create database: %w", err)
	}
	return true, nil
}

// extractDBName extracts the database name from a PostgreSQL connection string
func extractDBName(connString string) (string, error) {
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		u, err := url.Parse(connString)
		if err != nil {
			return "", fmt.Errorf("failed to parse connection URL: %w", err)
		}
		name := strings.TrimPrefix(u.Path, "/")
		if name == "" {
			return "", fmt.Errorf("could not find database name in connection string")
		}
		return name, nil
	}

	for _, pair := range strings.Fields(connString) {
		if strings.HasPrefix(pair, "dbname=") {
			return strings.TrimPrefix(pair, "dbname="), nil
		}
	}

	return "", fmt.Errorf("could not find database name in connection string")
}

// replaceDBName replaces the database name in a connection string
func replaceDBName(connString, newName string) (string, error) {
	if strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://") {
		u, err := url.Parse(connString)
		if err != nil {
			return "", err
		}
		u.Path = "/" + newName
		return u.String(), nil
	}

	var result []string
	for _, pair := range strings.Fields(connString) {
		if strings.HasPrefix(pair, "dbname=") {
			result = append(result, "dbname="+newName)
		} else {
			result = append(result, pair)
		}
	}
	return strings.Join(result, " "), nil
}
