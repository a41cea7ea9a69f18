// Package errdefs defines the error taxonomy shared by every ndtrain package.
//
// Each category has a sentinel for errors.Is and a struct carrying context for
// errors.As:
//
//	err := trainer.Step()
//	if errors.Is(err, errdefs.ErrConfiguration) {
//	    // no optimizer configured
//	}
//
//	var uaf *errdefs.UseAfterFreeError
//	if errors.As(err, &uaf) {
//	    log.Printf("handle %s used after release", uaf.ID)
//	}
package errdefs

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors, one per category.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrUseAfterFree    = errors.New("use after free")
	ErrTranslation     = errors.New("translation failed")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ConfigurationError reports a required collaborator that was never set,
// such as a missing sampler or a Step without an optimizer.
type ConfigurationError struct {
	Component string // Component that is misconfigured (e.g., "trainer")
	Detail    string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Component, e.Detail)
}

// Is matches ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// UseAfterFreeError reports access to a handle or manager after its owning
// manager was closed. It is fatal and never retried.
type UseAfterFreeError struct {
	Resource string // "handle" or "manager"
	ID       string
	Op       string // Operation that was attempted
}

// Error implements the error interface.
func (e *UseAfterFreeError) Error() string {
	return fmt.Sprintf("use after free: cannot %s %s %s: owning manager is closed", e.Op, e.Resource, e.ID)
}

// Is matches ErrUseAfterFree.
func (e *UseAfterFreeError) Is(target error) bool {
	return target == ErrUseAfterFree
}

// InvalidArgumentError reports malformed configuration or input: a
// non-positive batch size, an unknown parameter name, an unsupported
// encoding version.
type InvalidArgumentError struct {
	Name   string
	Value  any
	Detail string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid argument %s: %s", e.Name, e.Detail)
	}
	return fmt.Sprintf("invalid argument %s=%v: %s", e.Name, e.Value, e.Detail)
}

// Is matches ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// TranslationError wraps a failure raised while converting between external
// values and compute-graph buffers.
type TranslationError struct {
	Stage string // "preprocess" or "postprocess"
	Cause error
}

// Error implements the error interface.
func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation failed during %s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying error.
func (e *TranslationError) Unwrap() error {
	return e.Cause
}

// Is matches ErrTranslation.
func (e *TranslationError) Is(target error) bool {
	return target == ErrTranslation
}

// Configuration returns a ConfigurationError for component.
func Configuration(component, format string, args ...any) error {
	return &ConfigurationError{Component: component, Detail: fmt.Sprintf(format, args...)}
}

// UseAfterFree returns a UseAfterFreeError.
func UseAfterFree(resource, id, op string) error {
	return &UseAfterFreeError{Resource: resource, ID: id, Op: op}
}

// InvalidArgument returns an InvalidArgumentError. A nil value is omitted from
// the message.
func InvalidArgument(name string, value any, format string, args ...any) error {
	return &InvalidArgumentError{Name: name, Value: value, Detail: fmt.Sprintf(format, args...)}
}

// Translation wraps cause in a TranslationError for stage.
func Translation(stage string, cause error) error {
	return &TranslationError{Stage: stage, Cause: cause}
}

// IsRuntime reports whether err already belongs to the runtime taxonomy and
// must therefore propagate unchanged instead of being wrapped.
func IsRuntime(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrUseAfterFree) ||
		errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrTranslation) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
