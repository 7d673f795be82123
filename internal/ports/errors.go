package ports

import "errors"

// Standard application-level errors. Adapters wrap underlying
// infrastructure errors with these so callers can branch on
// errors.Is without knowing the transport.
var (
	ErrUnknown         = errors.New("unknown error occurred")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrNotFound        = errors.New("resource not found")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Backend API
	ErrBackendUnavailable = errors.New("panel backend is unavailable")
	ErrDecodeFailed       = errors.New("response decoding failed")
	ErrAuthRequired       = errors.New("authentication required")
	ErrAccessDenied       = errors.New("access denied")

	// Local store
	ErrStoreConnection = errors.New("panel store connection error")
	ErrQueryFailed     = errors.New("panel store query failed")
)
