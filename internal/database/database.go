package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"github.com/princeprakhar/foodnetwork-backend/pkg/logger"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Init opens the database named by cfg.DatabaseURL and migrates the schema.
// A "sqlite://" URL selects the embedded driver, anything else is handed to postgres.
func Init(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Info
	if cfg.IsProduction() {
		level = gormlogger.Warn
	}

	var (
		db  *gorm.DB
		err error
	)
	if strings.HasPrefix(cfg.DatabaseURL, sqlitePrefix) {
		db, err = OpenSQLite(strings.TrimPrefix(cfg.DatabaseURL, sqlitePrefix), level)
	} else {
		db, err = gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
			Logger:         gormlogger.Default.LogMode(level),
			TranslateError: true,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if db.Dialector.Name() == "postgres" {
		sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.DBConnLifetime)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{"dialect": db.Dialector.Name()}).Info("database connected")
	return db, nil
}

// OpenSQLite opens an embedded database. sqlite serialises writers, so the
// pool is pinned to a single connection; ":memory:" gives a private database.
func OpenSQLite(dsn string, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Follow{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
		&models.Company{},
		&models.Brand{},
		&models.FoodProduct{},
		&models.Source{},
		&models.FoodProductSource{},
		&models.Review{},
		&models.Comment{},
		&models.Reaction{},
		&models.Report{},
		&models.ModerationLog{},
		&models.FoodList{},
		&models.FoodListItem{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
