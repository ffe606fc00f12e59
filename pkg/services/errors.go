package services

import "fmt"

// PersistenceError reports that pipeline work succeeded but the result
// could not be written back. The source's recorded status may be stale
// when this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
