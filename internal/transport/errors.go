package transport

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/NamanBalaji/vidloader/internal/errors"
)

// ClassifyHTTPError converts an HTTP error status into an error; 1xx-3xx return nil.
func ClassifyHTTPError(statusCode int, url string) error {
	var baseErr error

	switch statusCode {
	case http.StatusNotFound:
		baseErr = errors.ErrResourceNotFound
	case http.StatusForbidden:
		baseErr = errors.ErrAccessDenied
	case http.StatusUnauthorized:
		baseErr = errors.ErrAuthentication
	case http.StatusGone:
		baseErr = errors.New("resource gone")
	case http.StatusTooManyRequests:
		baseErr = errors.New("too many requests")
	default:
		switch {
		case statusCode >= 500:
			baseErr = fmt.Errorf("server error (%d)", statusCode)
		case statusCode >= 400:
			baseErr = fmt.Errorf("client error (%d)", statusCode)
		default:
			return nil
		}
	}

	return errors.NewHTTPError(baseErr, url, statusCode)
}

// ClassifyError categorizes a transport failure
func ClassifyError(err error, url string) error {
	if err == nil {
		return nil
	}

	var downloadErr *errors.DownloadError
	if errors.As(err, &downloadErr) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return errors.NewContextError(err, url)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewNetworkError(fmt.Errorf("%w: %w", errors.ErrTimeout, err), url, true)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return errors.NewNetworkError(fmt.Errorf("%w: %w", errors.ErrTimeout, err), url, true)
		}
		return errors.NewNetworkError(err, url, true)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "connection refused"), strings.Contains(errStr, "connection reset"):
		return errors.NewNetworkError(fmt.Errorf("%w: %w", errors.ErrConnectionReset, err), url, true)
	case strings.Contains(errStr, "no such host"):
		return errors.NewNetworkError(err, url, false)
	}

	return errors.NewNetworkError(err, url, false)
}
