package dynamo

// DynamoDB attribute and index names shared by the repos and Bootstrap.
const (
	attrPK        = "pk"
	attrDomain    = "domain"
	attrEmail     = "email"
	attrOTPID     = "otp_id"
	attrOTP       = "otp"
	attrVerified  = "verified"
	attrExpiresAt = "expires_at"
	attrCreatedAt = "created_at"
	attrUpdatedAt = "updated_at"
	attrLeadID    = "lead_id"
	attrState     = "state"
	attrClaimedTo = "claimed_until"

	indexLeadEmail = "email-created_at-index"

	invitePrefixEmail = "EMAIL#"
	invitePrefixCode  = "CODE#"
)
