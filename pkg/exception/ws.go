package exception

import "errors"

// WS errors
var (
	ErrMalformedFrame   = errors.New("websocket: malformed frame")
	ErrSocketClosed     = errors.New("websocket: connection closed")
	ErrHeartbeatTimeout = errors.New("websocket: heartbeat timeout")
)
