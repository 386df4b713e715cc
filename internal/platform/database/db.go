package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global handle to the metadata store.
var DB *gorm.DB

// Open connects to the SQLite database at the given path. SQLite only
// supports one writer, so the pool is capped at a single connection
// and concurrent write calls queue instead of racing.
func Open(path string) (*gorm.DB, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 0,
			LogLevel:      logger.Silent,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// InitDB opens the database and stores the handle in the package
// global. Startup cannot continue without a store, so failure panics.
func InitDB(path string) {
	db, err := Open(path)
	if err != nil {
		fmt.Println("failed to connect to database:", err)
		panic(err)
	}
	DB = db

	fmt.Println("database connection established")
}
