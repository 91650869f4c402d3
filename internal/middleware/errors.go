package middleware

// Error codes rendered by middleware in the API error envelope.
const (
	ErrorCodeInternal          = "INTERNAL_ERROR"
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRequestTimeout    = "REQUEST_TIMEOUT"
	ErrorCodeUnauthorized      = "UNAUTHORIZED"
)

const (
	ErrorMessageInternal          = "An internal error occurred"
	ErrorMessageRateLimitExceeded = "Too many requests, retry later"
	ErrorMessageRequestTimeout    = "Request timed out"
	ErrorMessageMissingToken      = "Bearer token not provided"
	ErrorMessageInvalidToken      = "Invalid or expired token"
)
