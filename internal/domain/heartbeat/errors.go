package heartbeat

import "errors"

var (
	ErrHeartbeatNotFound = errors.New("no heartbeat recorded for this employee")
)
