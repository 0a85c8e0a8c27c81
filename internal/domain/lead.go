package domain

import "time"

// Lead categories offered on the landing page.
const (
	CategoryFurniture   = "furniture"
	CategoryElectronics = "electronics"
	CategoryVehicles    = "vehicles"
	CategoryOthers      = "others"
)

// LeadSubmission is one completed registration. Append-only.
type LeadSubmission struct {
	LeadID     string    `json:"lead_id" dynamodbav:"lead_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Email      string    `json:"email" dynamodbav:"email"`
	Location   string    `json:"location" dynamodbav:"location"`
	Category   string    `json:"category" dynamodbav:"category"`
	InviteCode string    `json:"invite_code" dynamodbav:"invite_code"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"required,max=100"`
}

type VerifyOTPRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	OTP      string `json:"otp" validate:"required,len=6,numeric"`
	Name     string `json:"name" validate:"required,max=100"`
	Location string `json:"location" validate:"required,max=100"`
	Category string `json:"category" validate:"required"`
}

// Registration is what a completed verification hands back to the caller.
type Registration struct {
	Email         string `json:"email"`
	InviteCode    string `json:"inviteCode"`
	CommunityLink string `json:"communityLink"`
	LeadID        string `json:"-"`
}

// LeadExport describes an uploaded lead workbook.
type LeadExport struct {
	Key  string `json:"key"`
	Rows int    `json:"rows"`
}
