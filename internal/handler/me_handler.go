package handler

import (
	"net/http"

	"lizza/internal/middleware"
	"lizza/internal/repository"
	"lizza/pkg/cloudinary"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	userRepo *repository.UserRepository
}

func NewMeHandler(userRepo *repository.UserRepository) *MeHandler {
	return &MeHandler{userRepo: userRepo}
}

func (h *MeHandler) GetProfile(c *gin.Context) {
	u, err := h.userRepo.GetByEmail(middleware.GetEmail(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"full_name":         u.FullName,
		"email":             u.Email,
		"user_type":         u.Role,
		"shift_start":       u.ShiftStart,
		"shift_end":         u.ShiftEnd,
		"employee_code":     u.EmployeeCode,
		"profile_photo_url": u.ProfilePhotoURL,
		"profile_thumb_url": cloudinary.ThumbnailURL(u.ProfilePhotoURL, cloudinary.ThumbWidth),
		"is_present":        u.IsPresent,
	})
}
