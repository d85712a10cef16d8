package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"strings"
	"time"

	"lizza/internal/domain"
	"lizza/internal/models"
	"lizza/internal/repository"
	"lizza/pkg/cloudinary"
	"lizza/pkg/pii"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidDOB = errors.New("invalid date of birth, expected YYYY-MM-DD")
	ErrDuplicate  = errors.New("duplicate employee data")
)

// OnboardInput is the manager-submitted onboarding form. Document readers are
// optional; size limits are enforced at the HTTP boundary.
type OnboardInput struct {
	FirstName        string
	LastName         string
	PersonalEmail    string
	PhoneNumber      string
	DOB              string // YYYY-MM-DD
	FatherName       string
	MotherName       string
	BloodGroup       string
	EmergencyContact string
	Designation      string
	Department       string
	ExperienceYears  float64
	PrevCompany      string
	PrevRole         string
	AadhaarNumber    string
	PANNumber        string
	ManagerID        uint
	Role             string
	OfficeID         *uint
	ShiftStart       string
	ShiftEnd         string

	ProfilePhoto io.Reader
	AadhaarPhoto io.Reader
	PANPhoto     io.Reader
}

type OnboardResult struct {
	EmployeeCode  string `json:"employee_code"`
	OfficialEmail string `json:"official_email"`
}

// OnboardingService creates employee accounts: generates the company address
// and temporary password, encrypts identity numbers, uploads documents, and
// mails the credentials.
type OnboardingService struct {
	userRepo *repository.UserRepository
	cipher   *pii.Cipher
	cloud    cloudinary.Client // nil when uploads are not configured
	mail     *MailService
}

func NewOnboardingService(userRepo *repository.UserRepository, cipher *pii.Cipher, cloud cloudinary.Client, mail *MailService) *OnboardingService {
	return &OnboardingService{userRepo: userRepo, cipher: cipher, cloud: cloud, mail: mail}
}

func (s *OnboardingService) Onboard(ctx context.Context, in OnboardInput) (*OnboardResult, error) {
	tempPassword, err := tempPasswordFromDOB(in.DOB)
	if err != nil {
		return nil, ErrInvalidDOB
	}

	// The submitting manager owns the new employee; a dangling manager ID
	// falls back to the seeded admin so the record is never orphaned.
	managerID := in.ManagerID
	if _, err := s.userRepo.GetByID(managerID); err != nil {
		admin, aerr := s.userRepo.GetFirstAdmin()
		if aerr != nil {
			return nil, aerr
		}
		managerID = admin.ID
	}

	email := companyEmail(in.FirstName, in.LastName, 0)
	if exists, err := s.userRepo.EmailExists(email); err != nil {
		return nil, err
	} else if exists {
		email = companyEmail(in.FirstName, in.LastName, 10+rand.Intn(90))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	aadhaarEnc, err := s.cipher.Encrypt(in.AadhaarNumber)
	if err != nil {
		return nil, err
	}
	panEnc, err := s.cipher.Encrypt(in.PANNumber)
	if err != nil {
		return nil, err
	}

	code := employeeCode(email, time.Now())
	role := in.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	shiftStart, shiftEnd := in.ShiftStart, in.ShiftEnd
	if shiftStart == "" {
		shiftStart = domain.DefaultShiftStart
	}
	if shiftEnd == "" {
		shiftEnd = domain.DefaultShiftEnd
	}

	u := &models.User{
		FullName:         in.FirstName + " " + in.LastName,
		Email:            email,
		PersonalEmail:    in.PersonalEmail,
		PhoneNumber:      in.PhoneNumber,
		PasswordHash:     string(hash),
		PasswordChanged:  false,
		Role:             role,
		EmployeeCode:     code,
		DateOfBirth:      in.DOB,
		FatherName:       in.FatherName,
		MotherName:       in.MotherName,
		BloodGroup:       in.BloodGroup,
		EmergencyContact: in.EmergencyContact,
		Designation:      in.Designation,
		Department:       in.Department,
		ExperienceYears:  in.ExperienceYears,
		PrevCompany:      in.PrevCompany,
		PrevRole:         in.PrevRole,
		AadhaarEnc:       aadhaarEnc,
		PANEnc:           panEnc,
		ManagerID:        &managerID,
		OfficeID:         in.OfficeID,
		ShiftStart:       shiftStart,
		ShiftEnd:         shiftEnd,
	}

	u.ProfilePhotoURL = s.uploadDocument(ctx, in.ProfilePhoto, code, "profile")
	u.AadhaarPhotoURL = s.uploadDocument(ctx, in.AadhaarPhoto, code, "aadhaar")
	u.PANPhotoURL = s.uploadDocument(ctx, in.PANPhoto, code, "pan")

	if err := s.userRepo.Create(u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if s.mail != nil {
		s.mail.SendOnboarding(in.PersonalEmail, u.FullName, email, tempPassword)
	}
	return &OnboardResult{EmployeeCode: code, OfficialEmail: email}, nil
}

func (s *OnboardingService) uploadDocument(ctx context.Context, file io.Reader, code, kind string) string {
	if file == nil || s.cloud == nil {
		return ""
	}
	// Random public IDs keep re-uploaded documents from overwriting each other.
	url, err := s.cloud.UploadImage(ctx, file, "lizza/"+kind, code+"_"+uuid.New().String())
	if err != nil {
		log.Printf("[onboarding] %s upload failed for %s: %v", kind, code, err)
		return ""
	}
	return url
}

// companyEmail builds first.last@lizza.com, with a numeric suffix when the
// plain form is taken.
func companyEmail(first, last string, suffix int) string {
	first = strings.ToLower(strings.TrimSpace(first))
	last = strings.ToLower(strings.TrimSpace(last))
	if suffix > 0 {
		return fmt.Sprintf("%s.%s%d@lizza.com", first, last, suffix)
	}
	return fmt.Sprintf("%s.%s@lizza.com", first, last)
}

// tempPasswordFromDOB derives the initial password DDMMYYYY from the date of
// birth, matching what HR communicates verbally.
func tempPasswordFromDOB(dob string) (string, error) {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return "", err
	}
	return t.Format("02012006"), nil
}

// employeeCode derives the stable LIZZA-XXXXXXXXXX identifier.
func employeeCode(email string, now time.Time) string {
	sum := sha256.Sum256([]byte(email + now.UTC().String()))
	return "LIZZA-" + strings.ToUpper(hex.EncodeToString(sum[:])[:10])
}
