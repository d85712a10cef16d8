package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"lizza/config"
	"lizza/internal/domain"
	"lizza/internal/livestore"
	"lizza/internal/models"

	"gorm.io/gorm"
)

// --- fakes -----------------------------------------------------------------

type fakeDirectory struct {
	mu        sync.Mutex
	users     map[string]*models.User
	commitErr error
	commits   int
}

func (f *fakeDirectory) GetByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeDirectory) SetPresence(userID uint, present bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	for _, u := range f.users {
		if u.ID == userID {
			u.IsPresent = present
			f.commits++
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeDirectory) present(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[email].IsPresent
}

type fakeOffices struct {
	offices map[uint]*models.Office
}

func (f *fakeOffices) GetByID(id uint) (*models.Office, error) {
	o, ok := f.offices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

type fakeLive struct {
	mu        sync.Mutex
	positions map[string][2]float64
	markers   map[string]time.Time
	corrupt   map[string]bool
}

func newFakeLive() *fakeLive {
	return &fakeLive{
		positions: make(map[string][2]float64),
		markers:   make(map[string]time.Time),
		corrupt:   make(map[string]bool),
	}
}

func (f *fakeLive) SetPosition(_ context.Context, email string, lat, lon float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[email] = [2]float64{lat, lon}
	return nil
}

func (f *fakeLive) SetOutsideSince(_ context.Context, email string, t time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markers[email] = t
	return nil
}

func (f *fakeLive) OutsideSince(_ context.Context, email string) (time.Time, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.corrupt[email] {
		// Mirrors the real store: corrupt value is deleted, reported once.
		delete(f.corrupt, email)
		delete(f.markers, email)
		return time.Time{}, false, livestore.ErrBadMarker
	}
	t, ok := f.markers[email]
	return t, ok, nil
}

func (f *fakeLive) ClearOutside(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.markers, email)
	return nil
}

func (f *fakeLive) hasMarker(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.markers[email]
	return ok
}

type fakeHub struct {
	mu     sync.Mutex
	events []struct {
		channel string
		event   PresenceEvent
	}
}

func (f *fakeHub) Publish(channel string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, _ := payload.(PresenceEvent)
	f.events = append(f.events, struct {
		channel string
		event   PresenceEvent
	}{channel, ev})
}

// --- fixture ---------------------------------------------------------------

const testEmail = "jane.doe@lizza.com"

var testTrackingCfg = config.TrackingConfig{
	UTCOffset:          5*time.Hour + 30*time.Minute,
	GracePeriod:        15 * time.Minute,
	ViolationThreshold: 300 * time.Second,
	PositionTTL:        60 * time.Second,
}

// utcForLocal converts a local HH:MM wall clock into the engine's UTC now.
func utcForLocal(t *testing.T, hhmm string) time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		t.Fatalf("bad local time %q", hhmm)
	}
	local := time.Date(2025, 6, 2, parsed.Hour(), parsed.Minute(), 0, 0, time.UTC)
	return local.Add(-testTrackingCfg.UTCOffset)
}

type fixture struct {
	svc  *PresenceService
	dir  *fakeDirectory
	live *fakeLive
	hub  *fakeHub
}

func newFixture(present bool) *fixture {
	officeID := uint(1)
	managerID := uint(9)
	dir := &fakeDirectory{users: map[string]*models.User{
		testEmail: {
			ID:         3,
			FullName:   "Jane Doe",
			Email:      testEmail,
			OfficeID:   &officeID,
			ManagerID:  &managerID,
			ShiftStart: "09:00",
			ShiftEnd:   "18:00",
			IsPresent:  present,
		},
	}}
	offices := &fakeOffices{offices: map[uint]*models.Office{
		1: {ID: 1, Name: "HQ", Lat: 0, Lon: 0, Radius: 200},
	}}
	live := newFakeLive()
	hub := &fakeHub{}
	cfg := testTrackingCfg
	svc := NewPresenceService(&cfg, dir, offices, live, hub)
	return &fixture{svc: svc, dir: dir, live: live, hub: hub}
}

func (fx *fixture) at(t *testing.T, local string) {
	now := utcForLocal(t, local)
	fx.svc.now = func() time.Time { return now }
}

const (
	insideLon  = 0.0017 // ~189 m east of HQ, inside radius 200
	outsideLon = 0.003  // ~334 m east, outside
)

// --- precondition & resolution ---------------------------------------------

func TestHandlePingUnknownUser(t *testing.T) {
	fx := newFixture(false)
	_, err := fx.svc.HandlePing(context.Background(), "ghost@lizza.com", 0, 0)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestHandlePingNoOfficeAssigned(t *testing.T) {
	fx := newFixture(false)
	fx.dir.users[testEmail].OfficeID = nil
	_, err := fx.svc.HandlePing(context.Background(), testEmail, 0, 0)
	if !errors.Is(err, ErrNoOffice) {
		t.Fatalf("err = %v, want ErrNoOffice", err)
	}
}

func TestHandlePingDanglingOffice(t *testing.T) {
	fx := newFixture(false)
	bad := uint(77)
	fx.dir.users[testEmail].OfficeID = &bad
	_, err := fx.svc.HandlePing(context.Background(), testEmail, 0, 0)
	if !errors.Is(err, ErrOfficeNotFound) {
		t.Fatalf("err = %v, want ErrOfficeNotFound", err)
	}
}

func TestHandlePingNormalizesEmail(t *testing.T) {
	fx := newFixture(false)
	fx.at(t, "08:00")
	res, err := fx.svc.HandlePing(context.Background(), "  Jane.Doe@LIZZA.com ", 0, insideLon)
	if err != nil {
		t.Fatalf("HandlePing: %v", err)
	}
	if !res.IsInside {
		t.Error("expected inside")
	}
}

// --- grace window ----------------------------------------------------------

func TestGraceWindowMarksPresent(t *testing.T) {
	tests := []struct {
		local       string
		wantMessage string
		wantPresent bool
	}{
		{"08:00", domain.MsgOnDuty, false},        // before shift
		{"09:00", domain.MsgMarkedPresent, true},  // exact shift start
		{"09:10", domain.MsgMarkedPresent, true},  // inside grace
		{"09:15", domain.MsgMarkedPresent, true},  // grace boundary inclusive
		{"09:20", domain.MsgInsideLate, false},    // late, observed but not marked
		{"16:45", domain.MsgInsideLate, false},
	}
	for _, tt := range tests {
		t.Run(tt.local, func(t *testing.T) {
			fx := newFixture(false)
			fx.at(t, tt.local)
			res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, insideLon)
			if err != nil {
				t.Fatalf("HandlePing: %v", err)
			}
			if !res.IsInside || res.Status != domain.PingStatusNormal {
				t.Errorf("result = %+v, want inside/normal", res)
			}
			if res.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", res.Message, tt.wantMessage)
			}
			if fx.dir.present(testEmail) != tt.wantPresent {
				t.Errorf("is_present = %v, want %v", fx.dir.present(testEmail), tt.wantPresent)
			}
			if res.WarningSeconds != 0 {
				t.Errorf("warning_seconds = %d, want 0", res.WarningSeconds)
			}
		})
	}
}

func TestAlreadyPresentInsideClearsMarker(t *testing.T) {
	fx := newFixture(true)
	fx.at(t, "10:00")
	fx.live.markers[testEmail] = utcForLocal(t, "09:55")

	res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, insideLon)
	if err != nil {
		t.Fatalf("HandlePing: %v", err)
	}
	if res.Message != domain.MsgPresentInside {
		t.Errorf("message = %q", res.Message)
	}
	if fx.live.hasMarker(testEmail) {
		t.Error("marker not cleared on re-entry")
	}
	if fx.dir.commits != 0 {
		t.Errorf("commits = %d, want no durable write", fx.dir.commits)
	}
}

// --- outside ---------------------------------------------------------------

func TestOutsideWhileAbsent(t *testing.T) {
	fx := newFixture(false)
	fx.at(t, "10:00")
	res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatalf("HandlePing: %v", err)
	}
	if res.IsInside || res.Status != domain.PingStatusOutside || res.Message != domain.MsgOutsideGeofence {
		t.Errorf("result = %+v", res)
	}
	if fx.live.hasMarker(testEmail) {
		t.Error("absent employee must not get a violation timer")
	}
}

func TestViolationSequence(t *testing.T) {
	fx := newFixture(true)
	base := utcForLocal(t, "11:00")

	steps := []struct {
		offset      time.Duration
		wantStatus  string
		wantMessage string
		wantWarning int
		wantPresent bool
	}{
		{0, domain.PingStatusWarning, domain.MsgReturnToZone, 300, true},
		{200 * time.Second, domain.PingStatusWarning, domain.MsgOnDuty, 100, true},
		{301 * time.Second, domain.PingStatusViolation, domain.MsgMarkedAbsent, 0, false},
	}
	for i, st := range steps {
		fx.svc.now = func() time.Time { return base.Add(st.offset) }
		res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if res.Status != st.wantStatus || res.Message != st.wantMessage || res.WarningSeconds != st.wantWarning {
			t.Errorf("step %d: got %+v, want status=%s message=%q warning=%d",
				i, res, st.wantStatus, st.wantMessage, st.wantWarning)
		}
		if fx.dir.present(testEmail) != st.wantPresent {
			t.Errorf("step %d: is_present = %v, want %v", i, fx.dir.present(testEmail), st.wantPresent)
		}
	}
	if fx.live.hasMarker(testEmail) {
		t.Error("marker not cleared after violation")
	}
}

func TestDuplicatePingDoesNotResetTimer(t *testing.T) {
	fx := newFixture(true)
	base := utcForLocal(t, "11:00")

	fx.svc.now = func() time.Time { return base }
	first, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatal(err)
	}
	fx.svc.now = func() time.Time { return base.Add(time.Second) }
	second, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatal(err)
	}
	if second.WarningSeconds > first.WarningSeconds {
		t.Errorf("timer reset: first=%d second=%d", first.WarningSeconds, second.WarningSeconds)
	}
}

func TestReentryBeforeThresholdKeepsPresence(t *testing.T) {
	fx := newFixture(true)
	base := utcForLocal(t, "11:00")

	fx.svc.now = func() time.Time { return base }
	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon); err != nil {
		t.Fatal(err)
	}
	// Back inside with 100s to spare: marker gone, still present.
	fx.svc.now = func() time.Time { return base.Add(200 * time.Second) }
	res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, insideLon)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != domain.MsgPresentInside || !fx.dir.present(testEmail) {
		t.Errorf("re-entry demoted the employee: %+v present=%v", res, fx.dir.present(testEmail))
	}
	if fx.live.hasMarker(testEmail) {
		t.Error("marker survived re-entry")
	}

	// Leaving again starts a fresh 300s window.
	fx.svc.now = func() time.Time { return base.Add(400 * time.Second) }
	res, err = fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatal(err)
	}
	if res.WarningSeconds != 300 {
		t.Errorf("fresh window warning = %d, want 300", res.WarningSeconds)
	}
	if fx.dir.present(testEmail) != true {
		t.Error("presence lost without a full violation window")
	}
}

func TestCorruptMarkerDiscardedWithoutRecreate(t *testing.T) {
	fx := newFixture(true)
	fx.at(t, "11:00")
	fx.live.markers[testEmail] = time.Time{}
	fx.live.corrupt[testEmail] = true

	res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatalf("corrupt marker surfaced: %v", err)
	}
	if res.Status != domain.PingStatusNormal || res.WarningSeconds != 0 {
		t.Errorf("result = %+v, want silent recovery", res)
	}
	if fx.live.hasMarker(testEmail) {
		t.Error("marker recreated on the same call")
	}

	// Next ping starts the timer normally.
	res, err = fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != domain.PingStatusWarning || res.WarningSeconds != 300 {
		t.Errorf("next ping = %+v, want fresh warning", res)
	}
}

// --- degraded mode ---------------------------------------------------------

func TestDegradedModeWithoutLiveStore(t *testing.T) {
	fx := newFixture(true)
	fx.svc.live = nil
	fx.at(t, "11:00")

	res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
	if err != nil {
		t.Fatalf("HandlePing degraded: %v", err)
	}
	if res.Status != domain.PingStatusNormal || res.WarningSeconds != 0 {
		t.Errorf("degraded outside result = %+v", res)
	}
	if fx.dir.present(testEmail) != true {
		t.Error("degraded mode must never demote")
	}

	// Grace marking still works without the live store.
	fx2 := newFixture(false)
	fx2.svc.live = nil
	fx2.at(t, "09:05")
	res, err = fx2.svc.HandlePing(context.Background(), testEmail, 0, insideLon)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != domain.MsgMarkedPresent || !fx2.dir.present(testEmail) {
		t.Errorf("degraded grace marking failed: %+v", res)
	}
}

// --- durability ------------------------------------------------------------

func TestDurableCommitFailureAborts(t *testing.T) {
	fx := newFixture(false)
	fx.at(t, "09:05")
	fx.dir.commitErr = errors.New("db down")

	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, insideLon); err == nil {
		t.Fatal("grace commit failure not surfaced")
	}

	// Violation path: failed demote must keep the marker so the violation is
	// retried on the next ping.
	fx = newFixture(true)
	base := utcForLocal(t, "11:00")
	fx.svc.now = func() time.Time { return base }
	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon); err != nil {
		t.Fatal(err)
	}
	fx.dir.commitErr = errors.New("db down")
	fx.svc.now = func() time.Time { return base.Add(400 * time.Second) }
	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon); err == nil {
		t.Fatal("violation commit failure not surfaced")
	}
	if !fx.live.hasMarker(testEmail) {
		t.Error("marker cleared although the durable demote failed")
	}
	if !fx.dir.present(testEmail) {
		t.Error("presence flipped despite commit failure")
	}
}

// --- fanout ----------------------------------------------------------------

func TestPingPublishesToManagerChannel(t *testing.T) {
	fx := newFixture(true)
	fx.at(t, "11:00")
	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, insideLon); err != nil {
		t.Fatal(err)
	}
	if len(fx.hub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(fx.hub.events))
	}
	got := fx.hub.events[0]
	if got.channel != "9" {
		t.Errorf("channel = %q, want manager id 9", got.channel)
	}
	if got.event.Email != testEmail || !got.event.Present || got.event.Status != domain.ZoneInside {
		t.Errorf("event = %+v", got.event)
	}
}

func TestPingWithoutManagerSkipsPublish(t *testing.T) {
	fx := newFixture(true)
	fx.dir.users[testEmail].ManagerID = nil
	fx.at(t, "11:00")
	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, insideLon); err != nil {
		t.Fatal(err)
	}
	if len(fx.hub.events) != 0 {
		t.Errorf("events = %d, want 0", len(fx.hub.events))
	}
}

// --- malformed input -------------------------------------------------------

func TestNaNCoordinatesClassifyOutside(t *testing.T) {
	fx := newFixture(false)
	fx.at(t, "09:05")
	res, err := fx.svc.HandlePing(context.Background(), testEmail, math.NaN(), math.NaN())
	if err != nil {
		t.Fatal(err)
	}
	if res.IsInside {
		t.Error("NaN coordinates classified inside")
	}
	if fx.dir.present(testEmail) {
		t.Error("NaN ping marked employee present")
	}
}

// --- concurrency -----------------------------------------------------------

func TestConcurrentViolationPingsDemoteOnce(t *testing.T) {
	fx := newFixture(true)
	base := utcForLocal(t, "11:00")
	fx.svc.now = func() time.Time { return base }
	if _, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon); err != nil {
		t.Fatal(err)
	}

	fx.svc.now = func() time.Time { return base.Add(400 * time.Second) }
	const n = 8
	results := make([]*PingResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := fx.svc.HandlePing(context.Background(), testEmail, 0, outsideLon)
			if err != nil {
				t.Errorf("ping %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	violations := 0
	for _, res := range results {
		if res != nil && res.Status == domain.PingStatusViolation {
			violations++
		}
	}
	if violations != 1 {
		t.Errorf("violations = %d, want exactly 1", violations)
	}
	if fx.dir.commits != 1 {
		t.Errorf("durable commits = %d, want exactly 1", fx.dir.commits)
	}
	if fx.dir.present(testEmail) {
		t.Error("employee still present after confirmed violation")
	}
}
