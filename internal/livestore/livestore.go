// Package livestore is the volatile side of attendance tracking: last known
// positions with a short TTL, and the out-of-bounds markers the presence
// engine uses to time violations. Backed by Redis; a deployment without Redis
// runs with a nil *Store, which callers treat as "capability absent" (pings
// still answer, but no cross-request bookkeeping and empty live tracking).
package livestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"lizza/config"

	"github.com/redis/go-redis/v9"
)

const (
	posPrefix = "loc:"
	oobPrefix = "oob:"
)

// ErrBadMarker reports a corrupt out-of-bounds marker. The bad key is already
// deleted when this is returned; callers must not create a replacement on the
// same call.
var ErrBadMarker = errors.New("livestore: corrupt out-of-bounds marker")

// Position is a recently reported employee coordinate.
type Position struct {
	Email string
	Lat   float64
	Lon   float64
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg *config.RedisConfig, positionTTL time.Duration) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("livestore: %w", err)
	}
	return &Store{rdb: rdb, ttl: positionTTL}, nil
}

// SetPosition records the last known coordinate; the key expires after the
// configured TTL so stale entries age out without a sweep.
func (s *Store) SetPosition(ctx context.Context, email string, lat, lon float64) error {
	return s.rdb.Set(ctx, posPrefix+email, formatPosition(lat, lon), s.ttl).Err()
}

// Position returns the last known coordinate, ok=false when expired or never
// written.
func (s *Store) Position(ctx context.Context, email string) (lat, lon float64, ok bool, err error) {
	raw, err := s.rdb.Get(ctx, posPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	lat, lon, perr := parsePosition(raw)
	if perr != nil {
		// Unreadable entry: drop it rather than surface a parse error.
		_ = s.rdb.Del(ctx, posPrefix+email).Err()
		return 0, 0, false, nil
	}
	return lat, lon, true, nil
}

// SetOutsideSince stamps when a present employee was first seen outside their
// geofence. No TTL: the marker lives until re-entry or a confirmed violation.
func (s *Store) SetOutsideSince(ctx context.Context, email string, t time.Time) error {
	return s.rdb.Set(ctx, oobPrefix+email, t.UTC().Format(time.RFC3339Nano), 0).Err()
}

// OutsideSince returns the marker timestamp, ok=false when absent. A value
// that fails to parse is deleted and reported as ErrBadMarker.
func (s *Store) OutsideSince(ctx context.Context, email string) (time.Time, bool, error) {
	raw, err := s.rdb.Get(ctx, oobPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, perr := time.Parse(time.RFC3339Nano, raw)
	if perr != nil {
		_ = s.rdb.Del(ctx, oobPrefix+email).Err()
		return time.Time{}, false, ErrBadMarker
	}
	return t, true, nil
}

func (s *Store) ClearOutside(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, oobPrefix+email).Err()
}

// Purge removes all tracking state for an employee; used when the account is
// deleted.
func (s *Store) Purge(ctx context.Context, email string) error {
	return s.rdb.Del(ctx, posPrefix+email, oobPrefix+email).Err()
}

// AllPositions scans every live position key. Admin live tracking only; the
// manager view reads per-employee instead.
func (s *Store) AllPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	iter := s.rdb.Scan(ctx, 0, posPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.rdb.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, err
		}
		lat, lon, perr := parsePosition(raw)
		if perr != nil {
			continue
		}
		out = append(out, Position{
			Email: strings.TrimPrefix(key, posPrefix),
			Lat:   lat,
			Lon:   lon,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func formatPosition(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64)
}

func parsePosition(raw string) (lat, lon float64, err error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("livestore: malformed position %q", raw)
	}
	lat, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("livestore: malformed position %q", raw)
	}
	lon, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("livestore: malformed position %q", raw)
	}
	return lat, lon, nil
}
