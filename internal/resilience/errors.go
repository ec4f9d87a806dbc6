package resilience

import (
	"errors"
	"net"
	"net/textproto"
	"syscall"

	"google.golang.org/api/googleapi"
)

// IsTransient reports whether err (or any error in its chain) looks like a
// temporary storage failure worth retrying. It understands FTP reply codes,
// Google API status codes, and common network-level failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// FTP: 4yz replies are transient negative completions; the same request
	// may succeed on a fresh connection. 5yz replies are permanent.
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 400 && tpErr.Code < 500
	}

	// GCS surfaces throttling and server-side trouble as googleapi errors.
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// DNS at remote sites flakes more often than the links themselves.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}

// retryableStatus reports HTTP statuses that indicate a transient
// server-side condition.
func retryableStatus(code int) bool {
	switch code {
	case 408, // Request Timeout
		429, // Too Many Requests
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
