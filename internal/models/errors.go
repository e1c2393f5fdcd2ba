package models

import "errors"

var (
	// ErrInvalidInput is returned for allocation arguments that cannot produce a plan.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDecompositionFailure means the topic breakdown was unavailable or unparseable.
	ErrDecompositionFailure = errors.New("topic decomposition failed")
	// ErrProviderFailure wraps transport, auth and quota errors from the video provider.
	ErrProviderFailure = errors.New("video provider failure")
	// ErrNoMatchFound is reported when every selection attempt came back empty.
	ErrNoMatchFound = errors.New("no video found within duration")
	// ErrMalformedDuration is returned for duration strings with no recognizable components.
	ErrMalformedDuration = errors.New("malformed duration")
)
