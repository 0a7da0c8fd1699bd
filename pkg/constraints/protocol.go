package constraints

type Role string

const (
	RoleUser             Role = "user"
	RoleAdmin            Role = "admin"
	RoleEventCoordinator Role = "event_coordinator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleEventCoordinator:
		return true
	}
	return false
}

type ConferenceStatus string

const (
	StatusPending  ConferenceStatus = "pending"
	StatusApproved ConferenceStatus = "approved"
	StatusRejected ConferenceStatus = "rejected"
)

func (s ConferenceStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Machine-readable error codes carried in the error payload.
const (
	CodeInvalidRefreshToken    = "INVALID_REFRESH_TOKEN"
	CodeNoBearerToken          = "NO_BEARER_TOKEN"
	CodeInvalidAccessToken     = "INVALID_ACCESS_TOKEN"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	CodeEmailNotRegistered     = "EMAIL_NOT_REGISTERED"
	CodeInvalidOTP             = "INVALID_OTP"
	CodeValidation             = "VALIDATION_ERROR"
	CodeNotFound               = "NOT_FOUND"
	CodeForbidden              = "FORBIDDEN"
	CodeConflict               = "CONFLICT"
	CodeRateLimited            = "RATE_LIMITED"
	CodeInternal               = "INTERNAL_ERROR"
)

// Fixed keys the token pair is persisted under.
const (
	AccessTokenKey  = "auditorium_access_token"
	RefreshTokenKey = "auditorium_refresh_token"
)

// Cursor pagination limits shared by every list endpoint.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 20
)

// ClampLimit maps a requested page size into [1, MaxPageLimit], defaulting
// non-positive values to DefaultPageLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageLimit
	}
	if limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}
