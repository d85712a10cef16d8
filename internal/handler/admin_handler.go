package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"lizza/internal/domain"
	"lizza/internal/models"
	"lizza/internal/repository"
	"lizza/pkg/cloudinary"
	"lizza/pkg/timeofday"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// LivePurger is the slice of the live store admin operations need: dropping
// an employee's tracking keys when the account is deleted or renamed.
type LivePurger interface {
	Purge(ctx context.Context, email string) error
}

type AdminHandler struct {
	userRepo   *repository.UserRepository
	officeRepo *repository.OfficeRepository
	store      LivePurger        // nil when Redis is not deployed
	cloud      cloudinary.Client // nil when uploads are not configured
}

func NewAdminHandler(userRepo *repository.UserRepository, officeRepo *repository.OfficeRepository, store LivePurger, cloud cloudinary.Client) *AdminHandler {
	return &AdminHandler{userRepo: userRepo, officeRepo: officeRepo, store: store, cloud: cloud}
}

func (h *AdminHandler) ListEmployees(c *gin.Context) {
	users, err := h.userRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type UpdateEmployeeRequest struct {
	FullName   *string `json:"full_name"`
	NewEmail   *string `json:"new_email"`
	ShiftStart *string `json:"shift_start"`
	ShiftEnd   *string `json:"shift_end"`
	Role       *string `json:"user_type"`
	// OfficeID comes as a string from the dashboard; non-numeric values
	// clear the assignment.
	OfficeID *string `json:"location_id"`
}

func (h *AdminHandler) UpdateEmployee(c *gin.Context) {
	u, err := h.userRepo.GetByEmail(c.Param("email"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.NewEmail != nil {
		// Live-store keys are addressed by email; drop the old ones so a
		// rename does not leave orphaned positions or markers behind.
		newEmail := repository.NormalizeEmail(*req.NewEmail)
		purgeOnRename(c.Request.Context(), h.store, u.Email, newEmail)
		u.Email = newEmail
	}
	if req.ShiftStart != nil {
		clk, err := timeofday.Parse(*req.ShiftStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shift_start must be HH:MM"})
			return
		}
		u.ShiftStart = clk.String()
	}
	if req.ShiftEnd != nil {
		clk, err := timeofday.Parse(*req.ShiftEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "shift_end must be HH:MM"})
			return
		}
		u.ShiftEnd = clk.String()
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.OfficeID != nil {
		if id, err := strconv.ParseUint(*req.OfficeID, 10, 64); err == nil {
			officeID := uint(id)
			u.OfficeID = &officeID
		} else {
			u.OfficeID = nil
		}
	}
	if err := h.userRepo.Update(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Update successful"})
}

// purgeOnRename clears the old address's tracking keys when the email
// actually changes. Best-effort: stale keys age out or get purged on delete,
// so a failed purge must not block the update.
func purgeOnRename(ctx context.Context, store LivePurger, oldEmail, newEmail string) {
	if store == nil || oldEmail == newEmail {
		return
	}
	if err := store.Purge(ctx, oldEmail); err != nil {
		log.Printf("[admin] live-store purge failed for %s: %v", oldEmail, err)
	}
}

// DeleteEmployee removes the account, its live-tracking keys, and re-parents
// any reports.
func (h *AdminHandler) DeleteEmployee(c *gin.Context) {
	u, err := h.userRepo.GetByEmail(c.Param("email"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if h.store != nil {
		if err := h.store.Purge(c.Request.Context(), u.Email); err != nil {
			log.Printf("[admin] live-store purge failed for %s: %v", u.Email, err)
		}
	}
	if h.cloud != nil {
		for _, url := range []string{u.ProfilePhotoURL, u.AadhaarPhotoURL, u.PANPhotoURL} {
			if url == "" {
				continue
			}
			if err := h.cloud.DeleteByURL(c.Request.Context(), url); err != nil {
				log.Printf("[admin] document delete failed for %s: %v", u.Email, err)
			}
		}
	}
	if err := h.userRepo.Delete(u); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type OfficeRequest struct {
	Name   string   `json:"name" binding:"required"`
	Lat    *float64 `json:"lat" binding:"required"`
	Lon    *float64 `json:"lon" binding:"required"`
	Radius int      `json:"radius"`
}

func (h *AdminHandler) AddOffice(c *gin.Context) {
	var req OfficeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	radius := req.Radius
	if radius <= 0 {
		radius = domain.DefaultOfficeRadius
	}
	o := &models.Office{Name: req.Name, Lat: *req.Lat, Lon: *req.Lon, Radius: radius}
	if err := h.officeRepo.Create(o); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location Added", "id": o.ID})
}

func (h *AdminHandler) ListOffices(c *gin.Context) {
	offices, err := h.officeRepo.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, offices)
}

// DeleteOffice detaches assigned employees before removing the geofence so no
// user keeps a dangling office reference.
func (h *AdminHandler) DeleteOffice(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid office id"})
		return
	}
	if err := h.userRepo.DetachOffice(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "detach failed"})
		return
	}
	if err := h.officeRepo.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}
