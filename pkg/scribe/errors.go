package scribe

import "fmt"

// PreconditionError reports a request rejected on the client side before
// any network call was issued. Preconditions are never retried.
type PreconditionError struct {
	Field  string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed (%s): %s", e.Field, e.Reason)
}
