package service

import "errors"

// Sentinel errors services wrap with fmt.Errorf("%w: ..."). Handlers map
// them to 400/404/429; anything else surfaces as a server error.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrLimitReached = errors.New("limit reached")
)
