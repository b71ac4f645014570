package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	*gorm.DB
}

func NewDatabase(dsn string) (*Database, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info().Msg("connected to database")

	return &Database{db}, nil
}

// SQL exposes the underlying connection pool for the raw-SQL repositories.
func (db *Database) SQL() (*sql.DB, error) {
	return db.DB.DB()
}

func (db *Database) Migrate() error {
	err := db.AutoMigrate(&Chat{}, &ChatMember{}, &Message{}, &User{})
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Msg("database migration completed")
	return nil
}
