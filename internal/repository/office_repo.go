package repository

import (
	"lizza/internal/models"

	"gorm.io/gorm"
)

type OfficeRepository struct {
	db *gorm.DB
}

func NewOfficeRepository(db *gorm.DB) *OfficeRepository {
	return &OfficeRepository{db: db}
}

func (r *OfficeRepository) Create(o *models.Office) error {
	return r.db.Create(o).Error
}

func (r *OfficeRepository) GetByID(id uint) (*models.Office, error) {
	var o models.Office
	if err := r.db.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfficeRepository) ListAll() ([]models.Office, error) {
	var offices []models.Office
	err := r.db.Order("id").Find(&offices).Error
	return offices, err
}

func (r *OfficeRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Office{}, id).Error
}
