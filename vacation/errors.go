package vacation

import "errors"

// Domain errors surfaced by the persistence layer. Handlers translate these
// to HTTP status codes; everything else is a plain 500.
var (
	ErrEmployeeNotFound         = errors.New("employee not found")
	ErrMovementNotFound         = errors.New("movement not found")
	ErrMovementAlreadyCancelled = errors.New("movement already cancelled")
)
