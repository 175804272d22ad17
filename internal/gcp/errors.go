package gcp

import "fmt"

// InvalidPointError reports a rejected point mutation: non-finite
// coordinates or an unknown point id. The store is left unchanged.
type InvalidPointError struct {
	ID     int64
	Reason string
}

func (e *InvalidPointError) Error() string {
	if e.ID >= 0 {
		return fmt.Sprintf("invalid point %d: %s", e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid point: %s", e.Reason)
}

func errNonFinite() *InvalidPointError {
	return &InvalidPointError{ID: -1, Reason: "coordinates must be finite"}
}

func errUnknownID(id int64) *InvalidPointError {
	return &InvalidPointError{ID: id, Reason: "unknown id"}
}
