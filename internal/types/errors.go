package types

import "errors"

var (
	// ErrInvalidConfiguration is returned when the engine cannot run with the
	// configured zones, weights or counts. It is raised before any retrieval.
	ErrInvalidConfiguration = errors.New("invalid recommendation configuration")
	// ErrRetrievalFailed wraps a similarity-search failure for one zone.
	ErrRetrievalFailed = errors.New("poi retrieval failed")
	// ErrInvalidCandidate is returned when a retrieved POI misses a required attribute.
	ErrInvalidCandidate = errors.New("invalid poi candidate")
	// ErrEmptyProfile is returned when the profile text is blank.
	ErrEmptyProfile = errors.New("profile text is required")
)
