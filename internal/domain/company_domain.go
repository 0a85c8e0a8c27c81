package domain

import "time"

// CompanyDomain is one row of the business-email allowlist.
// PK: domain (lower-case).
type CompanyDomain struct {
	Domain     string    `json:"domain" dynamodbav:"domain"`
	IsApproved bool      `json:"is_approved" dynamodbav:"is_approved"`
	UpdatedAt  time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

type PutDomainRequest struct {
	IsApproved *bool `json:"is_approved" validate:"required"`
}

// DomainStatus is the outcome of an allowlist check.
type DomainStatus string

const (
	DomainIndeterminate DomainStatus = "indeterminate"
	DomainValid         DomainStatus = "valid"
	DomainInvalid       DomainStatus = "invalid"
)
