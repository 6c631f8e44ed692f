package db

import (
	"fmt"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector picks the gorm driver from the DSN: "file:" or "*.db" DSNs open
// SQLite, anything else is treated as a MySQL DSN.
func Dialector(dsn string) gorm.Dialector {
	if IsSQLite(dsn) {
		return gormsqlite.Open(dsn)
	}
	return mysql.Open(dsn)
}

func IsSQLite(dsn string) bool {
	d := strings.TrimSpace(dsn)
	if strings.HasPrefix(d, "file:") || d == ":memory:" {
		return true
	}
	path, _, _ := strings.Cut(d, "?")
	return strings.HasSuffix(path, ".db") || strings.HasSuffix(path, ".sqlite")
}

// Connect opens the database and migrates models.
func Connect(dsn string, models ...any) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}
	gdb, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	if IsSQLite(dsn) {
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer at a time
		sqlDB.SetMaxOpenConns(1)
	}
	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("db: migrate: %w", err)
		}
	}
	return gdb, nil
}
