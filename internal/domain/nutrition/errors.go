package nutrition

import "errors"

var (
	// ErrInvalidProfile is returned when a submitted profile is out of range
	ErrInvalidProfile = errors.New("invalid user profile")
)
