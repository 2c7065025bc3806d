package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrUnknownDialect indicates a dialect tag outside the supported set.
	ErrUnknownDialect = errors.New("ddl2ts: unknown dialect")
	// ErrInvalidOption indicates a rejected generation option.
	ErrInvalidOption = errors.New("ddl2ts: invalid option")
)

// UnknownDialectError reports a dialect tag that is not registered.
type UnknownDialectError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("ddl2ts: unsupported dialect %q (supported: %s)", e.Name, strings.Join(Names(), ", "))
}

// Is reports whether the target matches the sentinel error for UnknownDialectError.
func (e *UnknownDialectError) Is(target error) bool {
	return target == ErrUnknownDialect
}

// ConfigError represents an invalid option value.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("ddl2ts: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("ddl2ts: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidOption
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}
