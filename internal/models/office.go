package models

import (
	"time"

	"gorm.io/gorm"
)

// Office is a circular geofence: employees assigned to it are considered
// inside when within Radius meters of (Lat, Lon).
type Office struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Lat       float64        `gorm:"type:decimal(10,8);not null" json:"lat"`
	Lon       float64        `gorm:"type:decimal(11,8);not null" json:"lon"`
	Radius    int            `gorm:"not null;default:200" json:"radius"` // meters
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Office) TableName() string {
	return "office_locations"
}
