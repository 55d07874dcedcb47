package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"bizhub_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Options describe the PostgreSQL connection.
type Options struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	SchemaPath   string
	MaxOpenConns int
}

// Open connects to PostgreSQL, checks the connection and applies the schema file when one is set.
func Open(ctx context.Context, opts Options) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		opts.Host, opts.Port, opts.User, opts.Password, opts.Name, opts.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	utils.LogInfo("Successfully connected to the database", map[string]interface{}{"host": opts.Host, "db": opts.Name})

	if err := applySchema(ctx, db, opts.SchemaPath); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// applySchema reads and executes the schema file. The DDL is idempotent.
func applySchema(ctx context.Context, db *sql.DB, schemaPath string) error {
	if schemaPath == "" {
		utils.LogDebug("No schema path provided, skipping schema application")
		return nil
	}
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", schemaPath, err)
	}

	if _, err = db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	utils.LogInfo("Database schema applied successfully", map[string]interface{}{"path": schemaPath})
	return nil
}
