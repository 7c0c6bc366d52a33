package mdo

import (
	"errors"
	"fmt"
)

// Build-time structural errors.
var (
	// ErrDuplicateProducer indicates two producers for one namespace key.
	ErrDuplicateProducer = errors.New("mdo: namespace key has more than one producer")

	// ErrUnresolvedInput indicates an input key with no producer and no preset.
	ErrUnresolvedInput = errors.New("mdo: input has no producer and no preset value")

	// ErrCyclicDependency indicates a data dependency cycle between components.
	ErrCyclicDependency = errors.New("mdo: cyclic dependency between components")

	// ErrInvalidModel indicates a malformed model or design specification.
	ErrInvalidModel = errors.New("mdo: invalid model")
)

// Run-time errors.
var (
	// ErrUnknownVariable indicates a read of a key that was never written.
	ErrUnknownVariable = errors.New("mdo: unknown variable")

	// ErrDomain indicates a component rejected its inputs as physically invalid.
	ErrDomain = errors.New("mdo: input outside physical domain")
)

// ModelError carries the component and key a structural error refers to.
type ModelError struct {
	Kind      error
	Component string
	Key       string
	Msg       string
}

func (e *ModelError) Error() string {
	msg := e.Kind.Error()
	if e.Component != "" {
		msg += fmt.Sprintf(" [component %s]", e.Component)
	}
	if e.Key != "" {
		msg += fmt.Sprintf(" [key %s]", e.Key)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

func (e *ModelError) Unwrap() error { return e.Kind }

func invalidf(component, key, format string, args ...any) error {
	return &ModelError{Kind: ErrInvalidModel, Component: component, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// DomainError is returned by a component whose inputs are outside the
// physically valid range.
type DomainError struct {
	Component string
	Detail    string
}

// Domainf builds a DomainError for the named component.
func Domainf(component, format string, args ...any) *DomainError {
	return &DomainError{Component: component, Detail: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("mdo: component %s: %s", e.Component, e.Detail)
}

func (e *DomainError) Unwrap() error { return ErrDomain }

// PassError wraps a non-domain failure raised while executing a component.
type PassError struct {
	Component string
	Err       error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("mdo: pass failed in component %s: %v", e.Component, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
