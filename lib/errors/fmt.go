package errors

import "fmt"

// ErrorfOrNil wraps e with a formatted prefix, keeping nil as nil.
func ErrorfOrNil(e error, format string, args ...any) error {
	if e == nil {
		return nil
	}
	if len(format) == 0 {
		return e
	}
	return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", e)
}
