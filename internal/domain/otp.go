package domain

import "time"

// EmailOTP is one issued passcode.
// PK: email, SK: otp_id (ULID, so newest sorts last).
// ExpiresAt is stored as Unix seconds so it can be compared in filter expressions.
type EmailOTP struct {
	Email     string    `json:"email" dynamodbav:"email"`
	OTPID     string    `json:"otp_id" dynamodbav:"otp_id"`
	Code      string    `json:"-" dynamodbav:"otp"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt time.Time `json:"expires_at" dynamodbav:"expires_at,unixtime"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
}

// Active reports whether the passcode can still be consumed at now.
func (o *EmailOTP) Active(now time.Time) bool {
	return !o.Verified && !o.ExpiresAt.Before(now)
}
