package exception

import "errors"

// Channel lookup errors
var (
	ErrChannelDecode = errors.New("channel: malformed lookup response")
)
