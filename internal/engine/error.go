package engine

import (
	"math/rand"
	"time"

	"github.com/NamanBalaji/vidloader/internal/errors"
)

var (
	// ErrItemExists is returned when registering an identifier twice
	ErrItemExists = errors.New("item already exists")

	// ErrInvalidURL is returned for media links that cannot be loaded
	ErrInvalidURL = errors.ErrInvalidURL
)

// calculateBackoff calculates a backoff duration with jitter
func calculateBackoff(retryCount int, baseDelay time.Duration) time.Duration {
	// Exponential backoff: 2^retryCount * baseDelay
	delay := baseDelay * (1 << uint(retryCount))

	// Jitter between 75% and 125% of the computed delay
	jitterFactor := 0.75 + 0.5*rand.Float64()
	jitter := time.Duration(float64(delay) * jitterFactor)

	maxDelay := 2 * time.Minute
	if jitter > maxDelay {
		jitter = maxDelay
	}

	return jitter
}

// failureReason renders err for storage in a failed state
func failureReason(err error) string {
	if code, ok := errors.GetStatusCode(err); ok && code > 0 {
		return err.Error()
	}

	var downloadErr *errors.DownloadError
	if errors.As(err, &downloadErr) && downloadErr.Err != nil {
		return string(downloadErr.Category) + ": " + downloadErr.Err.Error()
	}

	return err.Error()
}
