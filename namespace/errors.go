package namespace

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableModule marks a wildcard target that cannot be located.
	ErrUnresolvableModule = errors.New("unresolvable module")
	// ErrUnresolvableNamespace marks a module whose exported names cannot be
	// determined statically.
	ErrUnresolvableNamespace = errors.New("unresolvable namespace")
	// ErrWildcardCycle marks modules that wildcard-import each other.
	ErrWildcardCycle = errors.New("wildcard import cycle")
)

// ModuleError reports a module that could not be located.
type ModuleError struct {
	Module string
	Err    error
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("cannot locate module %s: %v", e.Module, e.Err)
}

func (e *ModuleError) Unwrap() []error {
	return []error{ErrUnresolvableModule, e.Err}
}

// NamespaceError reports a module whose namespace is not statically known.
type NamespaceError struct {
	Module string
	Reason string
	Err    error
}

func (e *NamespaceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("namespace of %s is not static: %s: %v", e.Module, e.Reason, e.Err)
	}
	return fmt.Sprintf("namespace of %s is not static: %s", e.Module, e.Reason)
}

func (e *NamespaceError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnresolvableNamespace}
	}
	return []error{ErrUnresolvableNamespace, e.Err}
}

// CycleError reports a wildcard import that closes a cycle.
type CycleError struct {
	Module string
	Target string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("wildcard import cycle: %s -> %s", e.Module, e.Target)
}

func (e *CycleError) Is(target error) bool {
	return target == ErrWildcardCycle
}
