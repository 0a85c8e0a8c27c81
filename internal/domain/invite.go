package domain

import "errors"

// InviteCode is the permanent per-email community token.
// Stored twice under PK "pk": once as EMAIL#<email> and once as CODE#<code>.
type InviteCode struct {
	Email      string `json:"email" dynamodbav:"email"`
	InviteCode string `json:"invite_code" dynamodbav:"invite_code"`
}

// Returned by the invite store when a conditional create loses to an existing item.
var (
	ErrInviteEmailTaken = errors.New("invite code already allocated for email")
	ErrInviteCodeTaken  = errors.New("invite code already in use")
)
