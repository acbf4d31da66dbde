package stimulus

import "fmt"

// MalformedTableError reports a table that is missing a required column or
// carries a value that cannot be parsed.
type MalformedTableError struct {
	Path   string
	Line   int
	Column string
	Reason string
}

func (e *MalformedTableError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("malformed table %s: line %d: column %q: %s", e.Path, e.Line, e.Column, e.Reason)
	case e.Column != "":
		return fmt.Sprintf("malformed table %s: column %q: %s", e.Path, e.Column, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("malformed table %s: line %d: %s", e.Path, e.Line, e.Reason)
	default:
		return fmt.Sprintf("malformed table %s: %s", e.Path, e.Reason)
	}
}
