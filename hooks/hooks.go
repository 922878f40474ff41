// Package hooks holds the capture-hook registry and the built-in metadata
// producers. A hook is any function that writes keys into a record; hooks are
// registered by name at pipeline construction and invoked with no guaranteed
// order relative to each other.
package hooks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/microbench/models"
)

// Sentinel errors surfaced by the registry and the built-in hooks.
var (
	// ErrNotCallable reports a nil hook; raised at registration time.
	ErrNotCallable = errors.New("hook is not callable")
	// ErrDuplicate reports a name registered twice.
	ErrDuplicate = errors.New("hook name already registered")
	// ErrMissingDependency reports that an optional collaborator a hook needs
	// (an external command, a platform facility) is not available. Deliberately
	// a hard failure: a user who opted into the hook is told why it produced
	// nothing instead of silently getting no data.
	ErrMissingDependency = errors.New("missing optional dependency")
)

// CaptureFunc mutates the record in place, adding or overwriting keys. Hooks
// never replace the record. A hook may read keys written earlier by the
// pipeline (for example the transient function name).
type CaptureFunc func(ctx context.Context, rec *models.Record) error

// Registry maps hook names to capture functions. Names exist for diagnostics
// and duplicate detection; they impose no execution-order contract.
type Registry struct {
	names  []string
	funcs  map[string]CaptureFunc
	logger *zap.Logger
}

// NewRegistry creates an empty registry. A nil logger is replaced with a
// no-op logger.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		funcs:  make(map[string]CaptureFunc),
		logger: logger,
	}
}

// Register adds a named hook. A nil function or a duplicate name is a
// configuration error.
func (r *Registry) Register(name string, fn CaptureFunc) error {
	if fn == nil {
		return fmt.Errorf("hook %q: %w", name, ErrNotCallable)
	}
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("hook %q: %w", name, ErrDuplicate)
	}
	r.names = append(r.names, name)
	r.funcs[name] = fn
	return nil
}

// MustRegister is Register for static hook sets; it panics on the
// configuration errors Register reports.
func (r *Registry) MustRegister(name string, fn CaptureFunc) *Registry {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return r
}

// Names returns the registered hook names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	return len(r.names)
}

// Run invokes every hook against the record. A failing hook does not stop the
// others; all failures are joined and returned so the caller learns about each
// one. Hook failures are never swallowed.
func (r *Registry) Run(ctx context.Context, rec *models.Record) error {
	var errs []error
	for _, name := range r.names {
		if err := r.funcs[name](ctx, rec); err != nil {
			r.logger.Error("capture hook failed",
				zap.String("hook", name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("hook %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
