package services

import (
	"errors"
	"fmt"
)

// Sentinel errors for the business-level failure taxonomy. Handlers map
// these to HTTP status codes; anything else is a server fault.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// ErrUnknownAssignee is returned when a create references a non-existent
// user in assigned_to. It is a bad reference in the request body, so it
// wraps ErrInvalidInput. On update the same condition rejects the whole
// patch with ErrNotFound instead, and assign addresses the user directly
// so a missing one is plain ErrNotFound there too.
var ErrUnknownAssignee = fmt.Errorf("%w: assigned user does not exist", ErrInvalidInput)
