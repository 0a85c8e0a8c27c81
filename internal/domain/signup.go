package domain

import "time"

// Signup session states.
const (
	SignupPending    = "pending"
	SignupVerified   = "verified"
	SignupRegistered = "registered"
)

// SignupSession tracks one email through request-OTP, verify and register.
// PK: email. ExpiresAt is a DynamoDB TTL (Unix seconds). ClaimedUntil is the
// Unix second until which one request owns the verified-to-registered step.
type SignupSession struct {
	Email        string    `json:"email" dynamodbav:"email"`
	State        string    `json:"state" dynamodbav:"state"`
	Name         string    `json:"name" dynamodbav:"name"`
	Location     string    `json:"location,omitempty" dynamodbav:"location,omitempty"`
	Category     string    `json:"category,omitempty" dynamodbav:"category,omitempty"`
	OTPID        string    `json:"otp_id,omitempty" dynamodbav:"otp_id,omitempty"`
	InviteCode   string    `json:"invite_code,omitempty" dynamodbav:"invite_code,omitempty"`
	LeadID       string    `json:"lead_id,omitempty" dynamodbav:"lead_id,omitempty"`
	ClaimedUntil int64     `json:"claimed_until,omitempty" dynamodbav:"claimed_until"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
	ExpiresAt    int64     `json:"expires_at" dynamodbav:"expires_at"`
}

// Resumable reports whether a verified-but-unregistered session may finish
// registration without consuming a fresh OTP. The caller still has to claim it.
func (s *SignupSession) Resumable(now time.Time) bool {
	return s.State == SignupVerified && s.OTPID != "" && now.Unix() <= s.ExpiresAt && s.ClaimedUntil < now.Unix()
}
