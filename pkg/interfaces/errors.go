package interfaces

import "errors"

// Common interface errors used across components
var (
	ErrUnknownConnection = errors.New("unknown connection")
)
