package constants

// Error messages used in API responses.
// These are the human-readable messages returned in the "message" field.
const (
	// Common messages
	MsgInvalidRequestBody = "Invalid request body"
	MsgInternalError      = "An internal error occurred"
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "Invalid API key"
	MsgUnavailable        = "Storage is temporarily unavailable"

	// Shortener-specific messages
	MsgInvalidURL    = "Invalid URL (must be http or https, at most 2048 characters)"
	MsgInvalidAlias  = "Custom alias must be 3-50 characters of letters, digits, '-' or '_'"
	MsgInvalidExpiry = "expires_at must be in the future"
	MsgLinkNotFound  = "Link not found"
	MsgLinkExpired   = "Link has expired"
	MsgURLExists     = "URL already shortened"
	MsgAliasExists   = "Custom alias already exists"
	MsgInvalidToken  = "Invalid or expired bearer token"
)
