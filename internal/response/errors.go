package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation   ErrCode = "VALIDATION_ERROR"
	ErrInvalidID    ErrCode = "INVALID_ID"
	ErrInvalidQuery ErrCode = "INVALID_QUERY"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Upstream question API ─────────────────────────────────────────
	ErrUpstream            ErrCode = "UPSTREAM_ERROR"
	ErrUpstreamUnreachable ErrCode = "UPSTREAM_UNREACHABLE"
	ErrUpstreamInvalid     ErrCode = "UPSTREAM_INVALID_RESPONSE"
	ErrUpstreamMisconfig   ErrCode = "UPSTREAM_MISCONFIGURED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid question ID."
	case ErrInvalidQuery:
		return "Invalid query parameters."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Upstream question API ─────────────────────────────────────────
	case ErrUpstream:
		return "The question service returned an error."
	case ErrUpstreamUnreachable:
		return "Network error: Unable to reach the server"
	case ErrUpstreamInvalid:
		return "Invalid response from server"
	case ErrUpstreamMisconfig:
		return "The question service is not configured correctly."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred"
	}
}
