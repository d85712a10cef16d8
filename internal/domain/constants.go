package domain

const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Ping statuses returned to the tracking client.
const (
	PingStatusNormal    = "normal"
	PingStatusWarning   = "warning"
	PingStatusViolation = "violation"
	PingStatusOutside   = "outside"
)

// Ping messages. The mobile client string-matches some of these, keep stable.
const (
	MsgOnDuty          = "On Duty"
	MsgMarkedPresent   = "Marked Present"
	MsgInsideLate      = "Inside Zone (Late)"
	MsgPresentInside   = "Present & Inside Zone"
	MsgOutsideGeofence = "Outside Geofence"
	MsgReturnToZone    = "Return to Zone!"
	MsgMarkedAbsent    = "Marked Absent"
)

// Zone states pushed to manager dashboards.
const (
	ZoneInside  = "inside"
	ZoneOutside = "outside"
)

const (
	DefaultShiftStart   = "09:00"
	DefaultShiftEnd     = "18:00"
	DefaultOfficeRadius = 200 // meters
)

// MaxUploadBytes caps onboarding document uploads.
const MaxUploadBytes = 5 * 1024 * 1024
