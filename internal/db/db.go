// Package db opens the call journal database.
package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/neurelo-connect/neurelo-connect-mcp/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultSQLiteFile is the journal file used when no DSN is supplied.
const DefaultSQLiteFile = "neurelo_mcp.db"

// NewDBConnection opens the database identified by dsn.
// postgres:// and postgresql:// DSNs use postgres, anything else is treated as a SQLite file path.
// An empty DSN opens DefaultSQLiteFile in the current directory.
func NewDBConnection(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	memory := false
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		dialector = postgres.Open(dsn)
	case dsn == "":
		dialector = sqlite.Open(DefaultSQLiteFile)
	default:
		memory = strings.Contains(dsn, ":memory:")
		dialector = sqlite.Open(dsn)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the journal database: %w", err)
	}

	if memory {
		// every connection to :memory: is a separate database
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get the underlying sql connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return conn, nil
}

// Migrate creates or updates the journal tables.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(&model.ToolCall{}); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

// Open connects to the database and migrates it.
func Open(dsn string) (*gorm.DB, error) {
	conn, err := NewDBConnection(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateOrClose(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// migrateOrClose migrates conn, closing it when the migration fails.
func migrateOrClose(conn *gorm.DB) error {
	if err := Migrate(conn); err != nil {
		if sqlDB, dbErr := conn.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return err
	}
	return nil
}
