package core

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by the repository, the store
// adapters and the auth gate wraps exactly one of these.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAuth             = errors.New("auth error")
)

var (
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidType   = fmt.Errorf("%w: invalid type", ErrValidation)
	ErrMissingID     = fmt.Errorf("%w: id required", ErrValidation)
)
