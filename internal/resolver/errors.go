package resolver

import "fmt"

// StructuralError reports a schema document defect that makes the
// relational model unresolvable. No partial model is produced when one
// is raised.
type StructuralError struct {
	Schema string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("schema %s: %s", e.Schema, e.Reason)
}
