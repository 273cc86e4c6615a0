package utils

import "time"

// Application Constants
const (
	AppName    = "AgencyPortal"
	AppVersion = "1.0.0"

	DefaultCurrency = "USD"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour

	// Invoices
	InvoiceURLExpiry = 15 * time.Minute
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInvalidInput     = "invalid input"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
	ErrPaymentFailed    = "payment failed"
)

// Cache Keys
const (
	CacheUserPrefix = "user:"
)

// Realtime event types
const (
	EventRequestSubmitted = "request_submitted"
	EventRequestDecided   = "request_decided"
	EventProjectStatus    = "project_status"
	EventPaymentRecorded  = "payment_recorded"
	EventNotification     = "notification"
)
