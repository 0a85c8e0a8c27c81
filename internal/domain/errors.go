package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrInvalidOTP covers wrong, expired, already-used and unknown codes alike.
	ErrInvalidOTP = errors.New("invalid or expired OTP")
)

// ClientError pairs an underlying error with a message that is safe to send
// to API callers. Handlers show Msg and pick the status from Err.
type ClientError struct {
	Msg string
	Err error
}

func (e *ClientError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ClientError) Unwrap() error { return e.Err }

// BadRequest returns a 400-class error carrying msg.
func BadRequest(msg string) error {
	return &ClientError{Msg: msg, Err: ErrBadRequest}
}

// Failed wraps a server-side cause with a generic client message.
func Failed(msg string, cause error) error {
	return &ClientError{Msg: msg, Err: cause}
}
