// Package tenant provides the platform database and tenant detection.
package tenant

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/storekeephq/storekeep-go/pkg/config"
)

// Database is the shared platform database holding tenant configuration
// and the durable traffic cache. Turso is used when configured; local
// SQLite is the fallback for development and single-node deployments.
type Database struct {
	Conn     *sql.DB
	UseTurso bool
}

// NewDatabase opens the platform database from central config.
func NewDatabase() (*Database, error) {
	var conn *sql.DB
	var err error
	var useTurso bool

	if config.DatabaseURL != "" && config.DatabaseAuthToken != "" {
		connStr := config.DatabaseURL + "?authToken=" + config.DatabaseAuthToken
		conn, err = sql.Open("libsql", connStr)
		if err != nil {
			return nil, fmt.Errorf("turso connection failed: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("turso ping failed: %w", err)
		}
		useTurso = true
	} else {
		dbDir := filepath.Dir(config.SQLitePath)
		if dbDir != "." {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}

		conn, err = sql.Open("sqlite3", config.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite connection failed: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite ping failed: %w", err)
		}
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)

	return &Database{Conn: conn, UseTurso: useTurso}, nil
}

// Close releases the underlying connection pool.
func (db *Database) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// GetConnectionInfo describes the active backend for startup logging.
func (db *Database) GetConnectionInfo() string {
	if db.UseTurso {
		return "Turso (platform)"
	}
	return fmt.Sprintf("SQLite (%s)", config.SQLitePath)
}
