package remote

import (
	"errors"
	"fmt"
)

// ErrConfigMissing is returned before any request when no endpoint URL is
// configured.
var ErrConfigMissing = errors.New("api url not configured")

// TransportError covers everything below the application protocol: network
// failures, non-2xx statuses and bodies that do not have the expected shape.
type TransportError struct {
	Action string
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Action, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a well-formed response with ok != true. Message is empty when
// the backend did not say why.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fallbackMessage(e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Action, msg)
}

var errMalformed = errors.New("malformed response")

func fallbackMessage(action string) string {
	switch action {
	case actionUpsert:
		return "Update failed"
	case actionArchive:
		return "Archive failed"
	case actionRestore:
		return "Restore failed"
	case actionDelete:
		return "Delete failed"
	default:
		return "Request failed"
	}
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// APIMessage extracts the backend's own message from err, if it sent one.
func APIMessage(err error) (string, bool) {
	var ae *APIError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message, true
	}
	return "", false
}
