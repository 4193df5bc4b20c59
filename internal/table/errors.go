package table

import "fmt"

// SchemaError indicates an expected column is missing or the header is invalid.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e == nil {
		return "schema error"
	}
	if e.Column == "" {
		return e.Reason
	}
	return fmt.Sprintf("'%s' %s", e.Column, e.Reason)
}
