package database

import (
	"fmt"

	"github.com/stocksentry/stocksentry/internal/models"
	"github.com/stocksentry/stocksentry/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB is the global database instance
var DB *gorm.DB

// InitDatabase initializes the database connection
func InitDatabase(dsn string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Log.Info().Str("dsn", dsn).Msg("database initialized")
	return nil
}

// Migrate runs the schema migration for all tracked entities
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.TrackedSku{},
		&models.RegionalInventorySnapshot{},
		&models.ProductAlert{},
		&models.SystemConfig{},
		&models.Schedule{},
		&models.TaskExecution{},
	)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
