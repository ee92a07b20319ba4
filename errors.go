package measurement

import (
	"fmt"
	"strings"
)

// UnknownFieldError reports a field kind that is not in the registry, or one
// used with the wrong operation (Set on a compound, Add on a single).
type UnknownFieldError struct {
	Field  FieldKind
	Reason string
}

func (e *UnknownFieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("field %q: %s", string(e.Field), e.Reason)
	}
	return fmt.Sprintf("unknown field %q", string(e.Field))
}

// UnknownConstantError reports a hit-type or product-action shorthand that
// does not match a known constant.
type UnknownConstantError struct {
	Kind string
	Name string
}

func (e *UnknownConstantError) Error() string {
	return fmt.Sprintf("%s %q is not defined, check spelling", e.Kind, e.Name)
}

// MissingArgumentError reports a set or add operation invoked without a value.
type MissingArgumentError struct {
	Operation string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("a value must be specified for %s", e.Operation)
}

// UnknownOperationError reports an operation name that matches none of the
// recognised shapes.
type UnknownOperationError struct {
	Operation string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("operation %q is not defined", e.Operation)
}

// InvalidPayloadError reports a send attempted without the minimum required
// parameters. Missing lists the absent wire keys.
type InvalidPayloadError struct {
	Missing []string
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid payload: missing required parameters %s", strings.Join(e.Missing, ", "))
}

// InvalidItemError reports a compound item carrying a sub-field the compound
// does not define, or a malformed list selector.
type InvalidItemError struct {
	Field    FieldKind
	SubField string
	Reason   string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("%s item: sub-field %q %s", string(e.Field), e.SubField, e.Reason)
}

// StatusError is returned by HTTPTransport, together with the response, when
// the collection endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collect endpoint returned %s", e.Status)
}
