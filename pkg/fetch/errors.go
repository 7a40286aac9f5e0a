package fetch

import (
	"errors"
)

var (
	ErrNetworkTimeout = errors.New("network timeout")
	ErrNetworkStatus  = errors.New("unexpected status")
	ErrNetwork        = errors.New("network failure")
	ErrFileNotFound   = errors.New("file not found")
	ErrDecode         = errors.New("decode failure")
	ErrTooLarge       = errors.New("photo too large")
)

const (
	REASON_OK        = "ok"
	REASON_TIMEOUT   = "timeout"
	REASON_STATUS    = "status"
	REASON_NETWORK   = "network"
	REASON_NOT_FOUND = "not-found"
	REASON_DECODE    = "decode"
	REASON_TOO_LARGE = "too-large"
	REASON_UNKNOWN   = "unknown"
)

// Reason maps a fetch error to a stable label for metrics and placeholders.
func Reason(err error) string {
	switch {
	case err == nil:
		return REASON_OK
	case errors.Is(err, ErrNetworkTimeout):
		return REASON_TIMEOUT
	case errors.Is(err, ErrNetworkStatus):
		return REASON_STATUS
	case errors.Is(err, ErrNetwork):
		return REASON_NETWORK
	case errors.Is(err, ErrFileNotFound):
		return REASON_NOT_FOUND
	case errors.Is(err, ErrDecode):
		return REASON_DECODE
	case errors.Is(err, ErrTooLarge):
		return REASON_TOO_LARGE
	}
	return REASON_UNKNOWN
}
