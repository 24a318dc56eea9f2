package presence

import "errors"

// ErrInconsistentState marks a broken directory/membership invariant. It
// indicates a programming error, never a client mistake.
var ErrInconsistentState = errors.New("presence state inconsistent")
