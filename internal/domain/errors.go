package domain

import "fmt"

// StructuralError reports input that cannot be turned into the entity model
// at all. It aborts a verification run.
type StructuralError struct {
	Field  string
	Reason string
	Line   int
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("structural error: %s (line %d): %s", e.Field, e.Line, e.Reason)
	}
	return fmt.Sprintf("structural error: %s: %s", e.Field, e.Reason)
}

func Structural(field, format string, args ...any) *StructuralError {
	return &StructuralError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func StructuralAt(line int, field, format string, args ...any) *StructuralError {
	return &StructuralError{Field: field, Reason: fmt.Sprintf(format, args...), Line: line}
}
