package manifest

import (
	"fmt"
	"strings"

	"github.com/skillcoder/workload-reconciler/internal/logic/workload"
)

// ValidationError names the offending field of a rejected document.
type ValidationError struct {
	Document int
	Kind     string
	Name     string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "document %d", e.Document)

	if e.Kind != "" {
		b.WriteString(" (" + e.Kind)
		if e.Name != "" {
			b.WriteString(" " + e.Name)
		}

		b.WriteString(")")
	}

	if e.Field != "" {
		b.WriteString(": " + e.Field)
	}

	b.WriteString(": " + e.Reason)

	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return workload.ErrValidation
}

// fieldErrors collects violations for one document.
type fieldErrors struct {
	document int
	kind     string
	name     string
	errs     []error
}

func (f *fieldErrors) add(field, reason string) {
	f.errs = append(f.errs, &ValidationError{
		Document: f.document,
		Kind:     f.kind,
		Name:     f.name,
		Field:    field,
		Reason:   reason,
	})
}

func (f *fieldErrors) addAll(field string, reasons []string) {
	for _, reason := range reasons {
		f.add(field, reason)
	}
}
