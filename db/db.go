package db

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPSQLStorage opens the Postgres connection configured through DB_URL.
func NewPSQLStorage() (*gorm.DB, error) {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	connString := os.Getenv("DB_URL")

	db, err := gorm.Open(postgres.Open(connString), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)

	return db, nil
}
