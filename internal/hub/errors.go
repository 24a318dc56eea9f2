package hub

import "errors"

// Hub-specific error types
var (
	ErrHubAlreadyRunning  = errors.New("hub is already running")
	ErrHubNotRunning      = errors.New("hub is not running")
	ErrHubStopped         = errors.New("hub cannot be restarted")
	ErrNilEvent           = errors.New("event cannot be nil")
	ErrEventChannelFull   = errors.New("event channel is full")
	ErrConnectChannelFull = errors.New("connect channel is full")
)
