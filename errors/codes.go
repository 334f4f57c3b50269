package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Connection/Availability errors (retryable)
const (
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeExternalService indicates an upstream service failure.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	// ErrCodeStorage indicates a state-store failure.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// Resource errors
const (
	// ErrCodeSubscriptionGone indicates a notification referenced an
	// unregistered subscription.
	ErrCodeSubscriptionGone ErrorCode = "SUBSCRIPTION_GONE"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input failed validation.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// IsRetryableCode reports whether an error code represents a condition
// that is expected to succeed on retry.
func IsRetryableCode(code ErrorCode) bool {
	switch code {
	case ErrCodeTimeout, ErrCodeExternalService, ErrCodeStorage:
		return true
	default:
		return false
	}
}
