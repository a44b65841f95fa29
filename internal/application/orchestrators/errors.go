package orchestrators

import "errors"

// ErrForbidden is returned when the actor's level does not allow the operation.
var ErrForbidden = errors.New("you do not have permission to do that")
