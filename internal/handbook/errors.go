package handbook

import "fmt"

// ValidationError wraps input that failed validation
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
