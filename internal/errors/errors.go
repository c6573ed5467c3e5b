package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

type ErrorCategory string

const (
	CategoryNetwork  ErrorCategory = "NETWORK"  // Transport failures
	CategoryProtocol ErrorCategory = "PROTOCOL" // Response present but unusable
	CategoryIO       ErrorCategory = "IO"       // File system issues
	CategoryResource ErrorCategory = "RESOURCE" // Resource not found, etc.
	CategorySecurity ErrorCategory = "SECURITY" // Auth, permissions, etc.
	CategoryContext  ErrorCategory = "CONTEXT"  // Context cancellation
	CategoryState    ErrorCategory = "STATE"    // Illegal lifecycle transition
	CategoryUnknown  ErrorCategory = "UNKNOWN"  // Transport returned neither response nor error
)

// Protocol identifiers
type Protocol string

const (
	ProtocolHTTP    Protocol = "HTTP"
	ProtocolGeneric Protocol = "GENERIC"
)

// DownloadError represents an error that occurred while loading a stream resource
type DownloadError struct {
	Err        error         // Original error
	Category   ErrorCategory // General category
	Protocol   Protocol      // Which protocol generated this error
	Retryable  bool          // Whether retry is recommended
	Timestamp  time.Time     // When the error occurred
	Resource   string        // What resource was being accessed
	StatusCode int           // HTTP status code or protocol equivalent
}

// Error implements the error interface
func (e *DownloadError) Error() string {
	if e.Protocol == ProtocolGeneric {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Resource, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s (status: %d): %v", e.Protocol, e.Category, e.Resource, e.StatusCode, e.Err)
}

// Unwrap provides the underlying cause for error unwrapping (compatible with errors.As)
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// Common sentinel errors
var (
	ErrUnknown             = New("unknown error")
	ErrMalformedResponse   = New("malformed response")
	ErrInvalidTransition   = New("invalid state transition")
	ErrUnsupportedProtocol = New("unsupported protocol")
	ErrInvalidURL          = New("invalid URL")
	ErrTimeout             = New("operation timed out")
	ErrConnectionReset     = New("connection reset")
	ErrResourceNotFound    = New("resource not found")
	ErrAccessDenied        = New("access denied")
	ErrAuthentication      = New("authentication required")
)

// InvalidTransitionError is returned when a lifecycle state change is not
// allowed from the current state.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// Is reports ErrInvalidTransition as the sentinel for every transition error.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewInvalidTransitionError creates a state-machine rule violation
func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

// NewNetworkError creates a network-related error
func NewNetworkError(err error, resource string, retryable bool) *DownloadError {
	return &DownloadError{
		Err:       err,
		Category:  CategoryNetwork,
		Protocol:  ProtocolGeneric,
		Retryable: retryable,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewTransportError wraps a failure reported by the transport. Errors that are
// already classified are returned unchanged; anything else is a network error
// that is not retried, the same default the transport's classifier applies.
func NewTransportError(err error, resource string) error {
	var downloadErr *DownloadError
	if As(err, &downloadErr) {
		return err
	}

	return NewNetworkError(err, resource, false)
}

// NewMalformedResponseError creates an error for a response that arrived
// without the status or payload required to build a stream resource.
func NewMalformedResponseError(resource, reason string) *DownloadError {
	return &DownloadError{
		Err:       fmt.Errorf("%w: %s", ErrMalformedResponse, reason),
		Category:  CategoryProtocol,
		Protocol:  ProtocolHTTP,
		Retryable: false,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewUnknownError creates an error for a transport that completed with
// neither a response nor an error.
func NewUnknownError(resource string) *DownloadError {
	return &DownloadError{
		Err:       ErrUnknown,
		Category:  CategoryUnknown,
		Protocol:  ProtocolGeneric,
		Retryable: false,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewIOError creates an I/O related error
func NewIOError(err error, resource string) *DownloadError {
	return &DownloadError{
		Err:       err,
		Category:  CategoryIO,
		Protocol:  ProtocolGeneric,
		Retryable: false, // I/O errors are generally not retryable
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewContextError creates a context cancellation error
func NewContextError(err error, resource string) *DownloadError {
	return &DownloadError{
		Err:       err,
		Category:  CategoryContext,
		Protocol:  ProtocolGeneric,
		Retryable: false,
		Timestamp: time.Now(),
		Resource:  resource,
	}
}

// NewHTTPError creates an HTTP-specific error
func NewHTTPError(err error, resource string, statusCode int) *DownloadError {
	retryable := false
	category := CategoryProtocol

	switch {
	case statusCode >= 500 && statusCode != 501:
		retryable = true
	case statusCode == 429:
		retryable = true
	case statusCode >= 500:
		// 501 Not Implemented will not change on retry
	case statusCode == 401 || statusCode == 403:
		category = CategorySecurity
	case statusCode >= 400:
		category = CategoryResource
	}

	return &DownloadError{
		Err:        err,
		Category:   category,
		Protocol:   ProtocolHTTP,
		Retryable:  retryable,
		Timestamp:  time.Now(),
		Resource:   resource,
		StatusCode: statusCode,
	}
}

// IsRetryable determines if an error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var downloadErr *DownloadError
	if As(err, &downloadErr) {
		return downloadErr.Retryable
	}

	return false
}

// CategoryOf extracts the category from an error
func CategoryOf(err error) ErrorCategory {
	if Is(err, ErrInvalidTransition) {
		return CategoryState
	}

	var downloadErr *DownloadError
	if As(err, &downloadErr) {
		return downloadErr.Category
	}
	return CategoryUnknown
}

// IsNetworkError determines if the error is network-related
func IsNetworkError(err error) bool {
	var downloadErr *DownloadError
	return As(err, &downloadErr) && downloadErr.Category == CategoryNetwork
}

// IsTransportError is IsNetworkError under the name used by load callers.
// Cancellation (CategoryContext) is not a transport error: it only reaches a
// caller whose own request was cancelled, and the coordinator suppresses
// those completions. Timeouts are network errors.
func IsTransportError(err error) bool {
	return IsNetworkError(err)
}

// IsMalformedResponse determines if a response was missing its status or payload
func IsMalformedResponse(err error) bool {
	return Is(err, ErrMalformedResponse)
}

// IsUnknown determines if the transport violated its contract by returning nothing
func IsUnknown(err error) bool {
	var downloadErr *DownloadError
	return As(err, &downloadErr) && downloadErr.Category == CategoryUnknown
}

// IsInvalidTransition determines if the error is a state-machine rule violation
func IsInvalidTransition(err error) bool {
	return Is(err, ErrInvalidTransition)
}

// IsIOError determines if the error is I/O related
func IsIOError(err error) bool {
	var downloadErr *DownloadError
	return As(err, &downloadErr) && downloadErr.Category == CategoryIO
}

// GetStatusCode extracts the status code from an error if available
func GetStatusCode(err error) (int, bool) {
	var downloadErr *DownloadError
	if As(err, &downloadErr) {
		return downloadErr.StatusCode, true
	}
	return 0, false
}
