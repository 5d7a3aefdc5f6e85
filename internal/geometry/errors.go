package geometry

import "fmt"

// Error reports a source whose geometry is inconsistent.
type Error struct {
	Label  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("geometry error for %s: %s", e.Label, e.Reason)
}
