package models

import (
	"time"

	"lizza/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"size:255;not null" json:"full_name"`
	// Email is the company address and the natural key for every lookup;
	// always lowercased and trimmed before hitting the database.
	Email         string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PersonalEmail string `gorm:"size:255" json:"personal_email,omitempty"`
	PhoneNumber   string `gorm:"size:32" json:"phone_number,omitempty"`
	PasswordHash  string `gorm:"size:255" json:"-"`
	// PasswordChanged is false until the user replaces the DOB-derived
	// temporary password issued at onboarding.
	PasswordChanged bool   `gorm:"default:false" json:"-"`
	Role            string `gorm:"size:20;not null;index" json:"role"` // admin | manager | employee
	EmployeeCode    string `gorm:"uniqueIndex;size:32" json:"employee_code"`

	// Personal & family details collected at onboarding.
	DateOfBirth      string `gorm:"size:10" json:"date_of_birth,omitempty"` // YYYY-MM-DD
	FatherName       string `gorm:"size:255" json:"father_name,omitempty"`
	MotherName       string `gorm:"size:255" json:"mother_name,omitempty"`
	BloodGroup       string `gorm:"size:8" json:"blood_group,omitempty"`
	EmergencyContact string `gorm:"size:32" json:"emergency_contact,omitempty"`

	// Professional details.
	Designation     string  `gorm:"size:128" json:"designation,omitempty"`
	Department      string  `gorm:"size:128" json:"department,omitempty"`
	ExperienceYears float64 `gorm:"default:0" json:"experience_years"`
	PrevCompany     string  `gorm:"size:255" json:"prev_company,omitempty"`
	PrevRole        string  `gorm:"size:255" json:"prev_role,omitempty"`

	// Identity documents: numbers are AES-GCM encrypted (pkg/pii), photos
	// live in Cloudinary and only the URLs are stored.
	AadhaarEnc      string `gorm:"size:512" json:"-"`
	PANEnc          string `gorm:"size:512" json:"-"`
	ProfilePhotoURL string `gorm:"size:512" json:"profile_photo_url,omitempty"`
	AadhaarPhotoURL string `gorm:"size:512" json:"-"`
	PANPhotoURL     string `gorm:"size:512" json:"-"`

	// Hierarchy & geofence assignment. A nil OfficeID means no geofence:
	// location pings for this user are rejected.
	ManagerID *uint `gorm:"index" json:"manager_id,omitempty"`
	OfficeID  *uint `gorm:"index" json:"office_id,omitempty"`

	// Shift window as zero-padded HH:MM; IsPresent is the attendance of
	// record, mutated only by the presence engine.
	ShiftStart string `gorm:"size:5;not null;default:'09:00'" json:"shift_start"`
	ShiftEnd   string `gorm:"size:5;not null;default:'18:00'" json:"shift_end"`
	IsPresent  bool   `gorm:"default:false" json:"is_present"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Office *Office `gorm:"foreignKey:OfficeID" json:"office,omitempty"`
}

func (u *User) IsAdmin() bool   { return u.Role == domain.RoleAdmin }
func (u *User) IsManager() bool { return u.Role == domain.RoleManager }

func (User) TableName() string {
	return "users"
}
