package repository

import (
	"strings"

	"lizza/internal/domain"
	"lizza/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// NormalizeEmail canonicalizes an address before any lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) EmailExists(email string) (bool, error) {
	var n int64
	err := r.db.Model(&models.User{}).Where("email = ?", NormalizeEmail(email)).Count(&n).Error
	return n > 0, err
}

// GetFirstAdmin returns the earliest-created admin account.
func (r *UserRepository) GetFirstAdmin() (*models.User, error) {
	var u models.User
	if err := r.db.Where("role = ?", domain.RoleAdmin).Order("id").First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// SetPresence flips the durable attendance flag. Kept as a single targeted
// UPDATE so the presence engine's commit is one statement.
func (r *UserRepository) SetPresence(userID uint, present bool) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("is_present", present).Error
}

func (r *UserRepository) ListAll() ([]models.User, error) {
	var users []models.User
	err := r.db.Order("id").Find(&users).Error
	return users, err
}

func (r *UserRepository) ListByManager(managerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("manager_id = ?", managerID).Order("id").Find(&users).Error
	return users, err
}

// Delete removes the user and re-parents their reports to no manager.
func (r *UserRepository) Delete(u *models.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("manager_id = ?", u.ID).
			Update("manager_id", nil).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(u).Error
	})
}

// DetachOffice clears the geofence assignment for everyone at an office.
func (r *UserRepository) DetachOffice(officeID uint) error {
	return r.db.Model(&models.User{}).Where("office_id = ?", officeID).
		Update("office_id", nil).Error
}
