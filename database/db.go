package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ogserve/config"
	"ogserve/models"
)

var DB *gorm.DB

// Connect opens the shared connection pool from config.
func Connect(cfg *config.Config) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic("could not connect to database: " + err.Error())
	}
	DB = db
}

func AutoMigrate() {
	if err := DB.AutoMigrate(
		&models.Profile{}, &models.ProfileUsage{},
		&models.CachedImage{}, &models.RenderAttempt{},
	); err != nil {
		panic("migration failed: " + err.Error())
	}
}

// ForUpdate applies an exclusive row lock to the query. Postgres gets a real
// SELECT ... FOR UPDATE; SQLite rejects that syntax but serializes writers
// anyway, so the clause is skipped there and transactions still exclude each
// other (tests pin the pool to a single connection).
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
