package database

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// IsSQLite reports whether dsn selects the embedded SQLite store
func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, sqlitePrefix)
}

// NewSQLiteConnection opens a single-writer gorm connection to a SQLite file.
// dsn is "sqlite://<path>".
func NewSQLiteConnection(dsn string) (*gorm.DB, error) {
	path := strings.TrimPrefix(dsn, sqlitePrefix)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open picks the driver from dsn
func Open(dsn string) (*gorm.DB, error) {
	if IsSQLite(dsn) {
		return NewSQLiteConnection(dsn)
	}
	return NewPostgresConnection(dsn)
}
