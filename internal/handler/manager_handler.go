package handler

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"lizza/internal/domain"
	"lizza/internal/middleware"
	"lizza/internal/repository"
	"lizza/internal/service"

	"github.com/gin-gonic/gin"
)

type ManagerHandler struct {
	userRepo   *repository.UserRepository
	onboarding *service.OnboardingService
}

func NewManagerHandler(userRepo *repository.UserRepository, onboarding *service.OnboardingService) *ManagerHandler {
	return &ManagerHandler{userRepo: userRepo, onboarding: onboarding}
}

// MyEmployees lists the caller's direct reports.
func (h *ManagerHandler) MyEmployees(c *gin.Context) {
	employees, err := h.userRepo.ListByManager(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, employees)
}

// Onboard creates an employee from the multipart onboarding form.
func (h *ManagerHandler) Onboard(c *gin.Context) {
	in := service.OnboardInput{
		FirstName:        c.PostForm("first_name"),
		LastName:         c.PostForm("last_name"),
		PersonalEmail:    c.PostForm("personal_email"),
		PhoneNumber:      c.PostForm("phone_number"),
		DOB:              c.PostForm("dob"),
		FatherName:       c.PostForm("father_name"),
		MotherName:       c.PostForm("mother_name"),
		BloodGroup:       c.PostForm("blood_group"),
		EmergencyContact: c.PostForm("emergency_contact"),
		Designation:      c.PostForm("designation"),
		Department:       c.PostForm("department"),
		PrevCompany:      c.PostForm("prev_company"),
		PrevRole:         c.PostForm("prev_role"),
		AadhaarNumber:    c.PostForm("aadhar_number"),
		PANNumber:        c.PostForm("pan_number"),
		Role:             c.DefaultPostForm("user_type", domain.RoleEmployee),
		ShiftStart:       c.DefaultPostForm("shift_start", domain.DefaultShiftStart),
		ShiftEnd:         c.DefaultPostForm("shift_end", domain.DefaultShiftEnd),
		ManagerID:        middleware.GetUserID(c),
	}
	if in.FirstName == "" || in.LastName == "" || in.PersonalEmail == "" || in.DOB == "" ||
		in.AadhaarNumber == "" || in.PANNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required onboarding fields"})
		return
	}
	if v := c.PostForm("experience_years"); v != "" {
		if years, err := strconv.ParseFloat(v, 64); err == nil {
			in.ExperienceYears = years
		}
	}
	if v := c.PostForm("location_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			officeID := uint(id)
			in.OfficeID = &officeID
		}
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			cl.Close()
		}
	}()
	for _, doc := range []struct {
		field  string
		target *io.Reader
	}{
		{"profile_photo", &in.ProfilePhoto},
		{"aadhar_photo", &in.AadhaarPhoto},
		{"pan_photo", &in.PANPhoto},
	} {
		f, ok, err := openUpload(c, doc.field)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if ok {
			*doc.target = f
			closers = append(closers, f)
		}
	}

	res, err := h.onboarding.Onboard(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidDOB):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDuplicate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			log.Printf("[manager] onboarding failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "onboarding failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"employee_code":  res.EmployeeCode,
		"official_email": res.OfficialEmail,
	})
}

// openUpload returns the named form file when present, enforcing the size cap.
func openUpload(c *gin.Context, field string) (multipart.File, bool, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, false, nil // absent is fine, documents are optional
	}
	if header.Size > domain.MaxUploadBytes {
		return nil, false, errors.New(field + " is too large, max allowed is 5MB")
	}
	f, err := header.Open()
	if err != nil {
		return nil, false, errors.New("could not read " + field)
	}
	return f, true, nil
}
