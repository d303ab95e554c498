package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication and upstream errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNotAuthenticated    = fmt.Errorf("not authenticated")
	ErrRateLimited         = fmt.Errorf("rate limited")
	ErrUpstreamUnavailable = fmt.Errorf("upstream unavailable")
	ErrTrackNotFound       = fmt.Errorf("track not found")

	// Search and acquisition errors
	ErrNoMatchFound     = fmt.Errorf("no match found")
	ErrFetchFailed      = fmt.Errorf("fetch failed")
	ErrFetchTimeout     = fmt.Errorf("fetch timed out")
	ErrValidationFailed = fmt.Errorf("validation failed")
	ErrArtifactMissing  = fmt.Errorf("artifact missing")

	// Job errors
	ErrJobNotFound = fmt.Errorf("job not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
