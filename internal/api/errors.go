package api

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a requested resource does not exist.
type NotFoundError struct {
	// ResourceType categorizes the resource ("environment", "template").
	ResourceType string

	// ResourceName is the identifier that was looked up.
	ResourceName string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// NewEnvironmentNotFoundError creates a not-found error for an environment id.
func NewEnvironmentNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ResourceType: "environment", ResourceName: id}
}

// NewTemplateNotFoundError creates a not-found error for a template id.
func NewTemplateNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ResourceType: "template", ResourceName: id}
}

// QuotaExceededError reports that an admission check rejected a creation
// request. Limit names the specific limit that was breached.
type QuotaExceededError struct {
	// Limit is the configuration key of the breached limit, e.g.
	// "max_environments_per_owner" or "max_total_environments".
	Limit string

	// Max is the configured ceiling and Current the count observed at
	// admission time.
	Max     int
	Current int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded: %s (%d/%d)", e.Limit, e.Current, e.Max)
}

// IsQuotaExceeded reports whether err is or wraps a QuotaExceededError.
func IsQuotaExceeded(err error) bool {
	var quota *QuotaExceededError
	return errors.As(err, &quota)
}

// InvalidStateError reports an operation attempted against an environment
// whose current lifecycle state does not permit it, e.g. stop called on a
// record that is still provisioning.
type InvalidStateError struct {
	ID        string
	Current   EnvironmentState
	Attempted EnvironmentState
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("environment %s is %s, cannot transition to %s", e.ID, e.Current, e.Attempted)
}

// IsInvalidState reports whether err is or wraps an InvalidStateError.
func IsInvalidState(err error) bool {
	var invalid *InvalidStateError
	return errors.As(err, &invalid)
}

// ScaleInProgressError reports a scale request dropped because the environment
// is already scaling. The request is dropped, not queued.
type ScaleInProgressError struct {
	ID string
}

// Error implements the error interface.
func (e *ScaleInProgressError) Error() string {
	return fmt.Sprintf("environment %s is already scaling", e.ID)
}

// IsScaleInProgress reports whether err is or wraps a ScaleInProgressError.
func IsScaleInProgress(err error) bool {
	var inProgress *ScaleInProgressError
	return errors.As(err, &inProgress)
}

// ProvisionError wraps a backend provisioning failure with the backend kind
// that produced it.
type ProvisionError struct {
	Kind  EnvironmentKind
	Cause error
}

// Error implements the error interface.
func (e *ProvisionError) Error() string {
	return fmt.Sprintf("%s backend provisioning failed: %v", e.Kind, e.Cause)
}

// Unwrap returns the backend cause.
func (e *ProvisionError) Unwrap() error {
	return e.Cause
}

// TerminateError wraps a backend termination failure.
type TerminateError struct {
	Kind  EnvironmentKind
	Cause error
}

// Error implements the error interface.
func (e *TerminateError) Error() string {
	return fmt.Sprintf("%s backend termination failed: %v", e.Kind, e.Cause)
}

// Unwrap returns the backend cause.
func (e *TerminateError) Unwrap() error {
	return e.Cause
}

// ErrProvisionTimeout marks a provisioning attempt that exceeded the
// configured deadline. The record moves to ERROR with this cause; retrying is
// a caller decision.
var ErrProvisionTimeout = errors.New("provisioning timed out")
