package marketdata

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData is returned when a well-formed response does not carry a
	// tradable quote or profile.
	ErrNoData = errors.New("no data")
	// ErrDataUnavailable is returned when a candle series is not usable:
	// its status is not ok, or it is empty or ragged.
	ErrDataUnavailable = errors.New("data unavailable")
)

// HTTPError is returned when the server responds with a non-success status.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
