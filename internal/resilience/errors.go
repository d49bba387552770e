package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry, such as a 429 or 5xx
// response from a model provider.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MarkTransient wraps err as transient when statusCode is retryable and
// returns err unchanged otherwise.
func MarkTransient(err error, statusCode int) error {
	if err == nil || !IsTransientStatus(statusCode) {
		return err
	}
	return &TransientError{Err: err, StatusCode: statusCode}
}

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"tls handshake timeout",
	"server closed idle connection",
	"unexpected eof",
}

// IsTransient reports whether err is a TransientError, a network timeout,
// a refused or reset connection, or carries a known transient message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientStatus reports whether an HTTP status is worth retrying.
func IsTransientStatus(statusCode int) bool {
	switch statusCode {
	case 408, 409, 429, 500, 502, 503, 504, 529:
		return true
	default:
		return false
	}
}
