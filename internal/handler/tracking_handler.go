package handler

import (
	"errors"
	"log"
	"net/http"

	"lizza/internal/livestore"
	"lizza/internal/middleware"
	"lizza/internal/repository"
	"lizza/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackingHandler exposes the ping ingress and the live-tracking read paths.
type TrackingHandler struct {
	presence *service.PresenceService
	store    *livestore.Store // nil when Redis is not deployed
	userRepo *repository.UserRepository
}

func NewTrackingHandler(presence *service.PresenceService, store *livestore.Store, userRepo *repository.UserRepository) *TrackingHandler {
	return &TrackingHandler{presence: presence, store: store, userRepo: userRepo}
}

type PingRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

// UpdateLocation ingests one GPS sample for the authenticated employee and
// returns the presence decision.
func (h *TrackingHandler) UpdateLocation(c *gin.Context) {
	var req PingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := middleware.GetEmail(c)
	res, err := h.presence.HandlePing(c.Request.Context(), email, *req.Lat, *req.Lon)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoOffice):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrOfficeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			log.Printf("[tracking] ping failed for %s: %v", email, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "location update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

type livePosition struct {
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Present bool    `json:"present"`
}

// AdminLiveTracking lists every recently active employee position. Without
// the live store this is always empty, not an error.
func (h *TrackingHandler) AdminLiveTracking(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, []livePosition{})
		return
	}
	positions, err := h.store.AllPositions(c.Request.Context())
	if err != nil {
		log.Printf("[tracking] live scan failed: %v", err)
		c.JSON(http.StatusOK, []livePosition{})
		return
	}
	out := make([]livePosition, 0, len(positions))
	for _, p := range positions {
		entry := livePosition{Email: p.Email, Lat: p.Lat, Lon: p.Lon}
		if u, err := h.userRepo.GetByEmail(p.Email); err == nil {
			entry.Name = u.FullName
			entry.Present = u.IsPresent
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, out)
}

// ManagerLiveTracking lists the caller's reports that have a recent position.
func (h *TrackingHandler) ManagerLiveTracking(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusOK, []livePosition{})
		return
	}
	managerID := middleware.GetUserID(c)
	employees, err := h.userRepo.ListByManager(managerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	out := make([]livePosition, 0, len(employees))
	for _, emp := range employees {
		lat, lon, ok, err := h.store.Position(c.Request.Context(), emp.Email)
		if err != nil {
			log.Printf("[tracking] position read failed for %s: %v", emp.Email, err)
			continue
		}
		if !ok {
			continue // stale or never reported
		}
		out = append(out, livePosition{
			Email:   emp.Email,
			Name:    emp.FullName,
			Lat:     lat,
			Lon:     lon,
			Present: emp.IsPresent,
		})
	}
	c.JSON(http.StatusOK, out)
}
