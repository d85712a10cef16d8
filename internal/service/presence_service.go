package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"lizza/config"
	"lizza/internal/domain"
	"lizza/internal/livestore"
	"lizza/internal/models"
	"lizza/internal/repository"
	"lizza/pkg/geo"
	"lizza/pkg/timeofday"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrNoOffice       = errors.New("no office assigned")
	ErrOfficeNotFound = errors.New("office not found")
)

// SubjectDirectory is the durable employee store the engine reads and commits
// presence against.
type SubjectDirectory interface {
	GetByEmail(email string) (*models.User, error)
	SetPresence(userID uint, present bool) error
}

type OfficeDirectory interface {
	GetByID(id uint) (*models.Office, error)
}

// LiveStore is the ephemeral tracking capability. The implementation may be
// absent entirely (nil): pings still answer, but no cross-request
// out-of-bounds bookkeeping happens.
type LiveStore interface {
	SetPosition(ctx context.Context, email string, lat, lon float64) error
	SetOutsideSince(ctx context.Context, email string, t time.Time) error
	OutsideSince(ctx context.Context, email string) (time.Time, bool, error)
	ClearOutside(ctx context.Context, email string) error
}

type Broadcaster interface {
	Publish(channel string, payload interface{})
}

// PingResult is the synchronous answer to one location ping.
type PingResult struct {
	IsInside       bool   `json:"is_inside"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	WarningSeconds int    `json:"warning_seconds"`
}

// PresenceEvent is pushed to the employee's manager channel on every ping.
// Present here means geofence membership for this ping, not the durable
// attendance flag.
type PresenceEvent struct {
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Present bool    `json:"present"`
	Status  string  `json:"status"`
}

// PresenceService is the geofence attendance state machine. Per employee it
// decides, on each ping: inside or outside, whether the grace window marks
// them present, and whether a continuous out-of-bounds stretch past the
// violation threshold demotes them to absent.
type PresenceService struct {
	cfg     *config.TrackingConfig
	users   SubjectDirectory
	offices OfficeDirectory
	live    LiveStore // nil when Redis is not deployed
	hub     Broadcaster
	locks   *keyedMutex
	now     func() time.Time
}

func NewPresenceService(cfg *config.TrackingConfig, users SubjectDirectory, offices OfficeDirectory, live LiveStore, hub Broadcaster) *PresenceService {
	return &PresenceService{
		cfg:     cfg,
		users:   users,
		offices: offices,
		live:    live,
		hub:     hub,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// HandlePing processes one location sample for the employee identified by
// email. Durable commit failures abort the request; live-store failures only
// degrade the timer bookkeeping.
func (s *PresenceService) HandlePing(ctx context.Context, email string, lat, lon float64) (*PingResult, error) {
	email = repository.NormalizeEmail(email)
	unlock := s.locks.Lock(email)
	defer unlock()

	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.OfficeID == nil {
		return nil, ErrNoOffice
	}
	office, err := s.offices.GetByID(*user.OfficeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfficeNotFound
		}
		return nil, err
	}

	if s.live != nil {
		if err := s.live.SetPosition(ctx, email, lat, lon); err != nil {
			log.Printf("[tracking] position write failed for %s: %v", email, err)
		}
	}

	// NaN coordinates compare false here, so they classify as outside.
	d := geo.Distance(lat, lon, office.Lat, office.Lon)
	isInside := d <= float64(office.Radius)

	if user.ManagerID != nil && s.hub != nil {
		zone := domain.ZoneOutside
		if isInside {
			zone = domain.ZoneInside
		}
		s.hub.Publish(strconv.FormatUint(uint64(*user.ManagerID), 10), PresenceEvent{
			Email:   user.Email,
			Name:    user.FullName,
			Lat:     lat,
			Lon:     lon,
			Present: isInside,
			Status:  zone,
		})
	}

	now := s.now().UTC()
	if isInside {
		return s.handleInside(ctx, user, now)
	}
	return s.handleOutside(ctx, user, now)
}

func (s *PresenceService) handleInside(ctx context.Context, user *models.User, now time.Time) (*PingResult, error) {
	res := &PingResult{IsInside: true, Status: domain.PingStatusNormal, Message: domain.MsgOnDuty}

	if user.IsPresent {
		res.Message = domain.MsgPresentInside
	} else {
		local := timeofday.FromTime(now.Add(s.cfg.UTCOffset))
		shiftStart, err := timeofday.Parse(user.ShiftStart)
		if err != nil {
			log.Printf("[tracking] bad shift_start %q for %s", user.ShiftStart, user.Email)
		} else {
			graceEnd := shiftStart.Add(s.cfg.GracePeriod)
			switch {
			case local >= shiftStart && local <= graceEnd:
				if err := s.users.SetPresence(user.ID, true); err != nil {
					return nil, err
				}
				res.Message = domain.MsgMarkedPresent
			case local.After(graceEnd):
				// Late arrivals are observed but not auto-marked present.
				res.Message = domain.MsgInsideLate
			}
		}
	}

	// Durable state is committed above; a crash before this clear just means
	// a redundant clear on the next inside ping.
	if s.live != nil {
		if err := s.live.ClearOutside(ctx, user.Email); err != nil {
			log.Printf("[tracking] marker clear failed for %s: %v", user.Email, err)
		}
	}
	return res, nil
}

func (s *PresenceService) handleOutside(ctx context.Context, user *models.User, now time.Time) (*PingResult, error) {
	if !user.IsPresent {
		// Absent employees outside the zone carry no violation timer.
		return &PingResult{IsInside: false, Status: domain.PingStatusOutside, Message: domain.MsgOutsideGeofence}, nil
	}

	res := &PingResult{IsInside: false, Status: domain.PingStatusNormal, Message: domain.MsgOnDuty}
	if s.live == nil {
		// Degraded mode: no cross-request bookkeeping possible.
		return res, nil
	}

	since, ok, err := s.live.OutsideSince(ctx, user.Email)
	if err != nil {
		if errors.Is(err, livestore.ErrBadMarker) {
			// Marker was corrupt and has been discarded; a fresh one is
			// created on the next ping, not this one.
			log.Printf("[tracking] discarded corrupt marker for %s", user.Email)
		} else {
			log.Printf("[tracking] marker read failed for %s: %v", user.Email, err)
		}
		return res, nil
	}

	if !ok {
		if err := s.live.SetOutsideSince(ctx, user.Email, now); err != nil {
			log.Printf("[tracking] marker write failed for %s: %v", user.Email, err)
			return res, nil
		}
		res.Status = domain.PingStatusWarning
		res.Message = domain.MsgReturnToZone
		res.WarningSeconds = int(s.cfg.ViolationThreshold.Seconds())
		return res, nil
	}

	remaining := s.cfg.ViolationThreshold - now.Sub(since)
	if remaining <= 0 {
		if err := s.users.SetPresence(user.ID, false); err != nil {
			return nil, err
		}
		if err := s.live.ClearOutside(ctx, user.Email); err != nil {
			log.Printf("[tracking] marker clear failed for %s: %v", user.Email, err)
		}
		res.Status = domain.PingStatusViolation
		res.Message = domain.MsgMarkedAbsent
		return res, nil
	}
	res.Status = domain.PingStatusWarning
	res.WarningSeconds = int(remaining.Seconds())
	return res, nil
}
