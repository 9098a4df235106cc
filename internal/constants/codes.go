package constants

// Error codes used in API responses.
// These are the machine-readable codes returned in the "error" field.
const (
	// Common error codes
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeUnavailable    = "SERVICE_UNAVAILABLE"

	// Shortener-specific codes
	CodeInvalidURL    = "INVALID_URL"
	CodeInvalidAlias  = "INVALID_ALIAS"
	CodeInvalidExpiry = "INVALID_EXPIRY"
	CodeLinkExpired   = "LINK_EXPIRED"
	CodeLinkNotFound  = "LINK_NOT_FOUND"
	CodeURLExists     = "URL_ALREADY_SHORTENED"
	CodeAliasExists   = "ALIAS_ALREADY_EXISTS"
	CodeInvalidToken  = "INVALID_TOKEN"

	// Success codes
	CodeLinkCreated = "LINK_CREATED"
	CodeLinkFound   = "LINK_FOUND"
	CodeLinkUpdated = "LINK_UPDATED"
	CodeLinkDeleted = "LINK_DELETED"
	CodeStatsFound  = "STATS_FOUND"
)
