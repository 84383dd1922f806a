package mqtt

import "errors"

var (
	// ErrPublishTimeout is returned when the broker does not confirm a publish in time.
	ErrPublishTimeout = errors.New("timeout waiting for publish confirmation")
	// ErrInvalidPayload is returned for position messages that cannot be decoded.
	ErrInvalidPayload = errors.New("invalid position payload")
)
