package database

import (
	"errors"
	"log"
	"os"

	"lizza/config"
	"lizza/internal/domain"
	"lizza/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Office{},
		&models.User{},
	)
}

// SeedAdmin creates the initial admin account when none exists, so a fresh
// deployment can log in and start onboarding.
func SeedAdmin(db *gorm.DB) {
	var admin models.User
	err := db.Where("role = ?", domain.RoleAdmin).First(&admin).Error
	if err == nil {
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[database] admin lookup failed: %v", err)
		return
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-on-first-login"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[database] admin seed failed: %v", err)
		return
	}
	admin = models.User{
		FullName:        "System Admin",
		Email:           "admin@lizza.com",
		PasswordHash:    string(hash),
		PasswordChanged: false,
		Role:            domain.RoleAdmin,
		EmployeeCode:    "LIZZA-ADMIN00000",
		ShiftStart:      domain.DefaultShiftStart,
		ShiftEnd:        domain.DefaultShiftEnd,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("[database] admin seed failed: %v", err)
		return
	}
	log.Printf("[database] seeded admin account admin@lizza.com")
}
