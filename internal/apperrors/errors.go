package apperrors

import (
	"errors"
	"fmt"
)

// NotFoundError reports that a responsibility centre, account or grant
// does not exist.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.Key)
}

// ConflictError reports a duplicate access grant for the same
// (responsibility centre, principal) pair.
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Resource, e.Key)
}

// AuthorizationError reports that the requester does not hold OWNER level
// on the responsibility centre a managing operation targets.
type AuthorizationError struct {
	Username  string
	Operation string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user '%s' is not authorized for %s", e.Username, e.Operation)
}

// ValidationError reports malformed input, such as a user principal passed
// to the group grant entry point.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConfigurationError reports a malformed directory group mapping entry.
// It is logged and skipped during sync, never surfaced to an end user.
type ConfigurationError struct {
	Entry  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("bad group mapping '%s': %s", e.Entry, e.Reason)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
