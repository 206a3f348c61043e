package utils

import "fmt"

// XError tags a lower level failure with what was being attempted. Meta keeps
// the cause; when it is an error it stays reachable through errors.Is/As.
type XError struct {
	Reason string
	Meta   any
}

func (xe XError) Error() string {
	return fmt.Sprintf("xerror: %v: %v", xe.Reason, xe.Meta)
}

func (xe XError) Unwrap() error {
	if err, ok := xe.Meta.(error); ok {
		return err
	}
	return nil
}

func (xe XError) ToError() error {
	return xe
}
