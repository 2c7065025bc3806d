package dialect

import (
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Options are the per-call settings of Generate.
type Options struct {
	// Namespace wraps the output in a declare namespace block.
	Namespace string
	// Singular singularizes the last segment of every table name.
	Singular bool
	// TypeOverrides maps lower-cased raw type tokens to TypeScript types
	// ahead of the dialect's own rules.
	TypeOverrides map[string]string
	Logger        *slog.Logger
}

// Option configures a Generate call.
type Option func(*Options) error

var namespaceRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*$`)

// WithNamespace wraps the declarations in declare namespace ns { ... }.
// An empty ns means no namespace.
func WithNamespace(ns string) Option {
	return func(o *Options) error {
		if ns != "" && !namespaceRe.MatchString(ns) {
			return NewConfigError("Namespace", ns, "namespace must be a dotted TypeScript identifier")
		}
		o.Namespace = ns
		return nil
	}
}

// WithSingular names each declaration after the singular form of its
// table: users becomes User.
func WithSingular(singular bool) Option {
	return func(o *Options) error {
		o.Singular = singular
		return nil
	}
}

// WithTypeOverrides maps raw type tokens to fixed TypeScript types. Keys
// are matched case-insensitively at every nesting level.
func WithTypeOverrides(overrides map[string]string) Option {
	return func(o *Options) error {
		if o.TypeOverrides == nil {
			o.TypeOverrides = make(map[string]string, len(overrides))
		}
		for k, v := range overrides {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				return NewConfigError("TypeOverrides", k, "type name cannot be empty")
			}
			if strings.TrimSpace(v) == "" {
				return NewConfigError("TypeOverrides", k, "TypeScript type cannot be empty")
			}
			o.TypeOverrides[key] = strings.TrimSpace(v)
		}
		return nil
	}
}

// WithLogger sets the logger for skipped statements and lines.
func WithLogger(log *slog.Logger) Option {
	return func(o *Options) error {
		if log == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		o.Logger = log
		return nil
	}
}

func newOptions(opts []Option) (*Options, error) {
	o := &Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	var errs []error
	for _, opt := range opts {
		if err := opt(o); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return o, nil
}
