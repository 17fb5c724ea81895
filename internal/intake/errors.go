package intake

import (
	"fmt"
	"strings"
)

// ValidationError carries every problem found in a client payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// ConfigurationError lists required configuration keys that are missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing required configuration: " + strings.Join(e.Missing, ", ")
}

// StorageError wraps a failed insert against the remote store.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

// NotificationFailure is one failed send.
type NotificationFailure struct {
	Kind string
	Err  error
}

// NotificationError reports failed sends. The record it relates to is already stored.
type NotificationError struct {
	Failures []NotificationFailure
}

func (e *NotificationError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *NotificationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

func (f NotificationFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}
