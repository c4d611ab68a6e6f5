package sheets

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Error taxonomy for source failures. Callers decide retry behavior with
// errors.Is: only ErrTransient is worth retrying, the others are terminal
// for the request.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrNotFound       = errors.New("sheet not found")
	ErrTransient      = errors.New("transient network error")
)

// Classify wraps err with the matching taxonomy sentinel. Google API status
// codes map as 401/403 -> authentication, 404 -> not found, 408/429/5xx ->
// transient. Context deadline expiry and net timeouts are transient too.
// Errors that fit no bucket pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		case gerr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case gerr.Code == http.StatusRequestTimeout || gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}

	return err
}
