package executor

import "errors"

var (
	ErrToolNotFound = errors.New("tool not found")
	ErrToolBlocked  = errors.New("tool blocked by policy")
)
