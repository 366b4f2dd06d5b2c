package component

import "context"

// ValidationErrors maps a field name to its list of validation
// messages. An empty map means the component is valid.
type ValidationErrors map[string][]string

// Clone returns a deep copy of the error map.
func (v ValidationErrors) Clone() ValidationErrors {
	out := make(ValidationErrors, len(v))
	for field, msgs := range v {
		out[field] = append([]string(nil), msgs...)
	}
	return out
}

// Instance is a live, server-held component addressed by a stable
// identity string. The dispatcher drives it through the lifecycle
// hooks below; implementations usually embed Base and override the
// hooks they care about.
type Instance interface {
	// ID returns the stable instance identity.
	ID() string

	// Name returns the registered component name, e.g. "hello-world".
	Name() string

	// Hydrate runs after the initial data snapshot has been applied.
	Hydrate()

	// Updating and Updated run before/after every property write,
	// with the full dotted path.
	Updating(path string, value any)
	Updated(path string, value any)

	// Calling and Called run before/after every method invocation.
	Calling(name string, args []any)
	Called(name string, args []any)

	// Validate validates the named fields, or every declared field
	// when called with no names. Failures accumulate in Errors.
	Validate(fields ...string)

	// Errors returns the accumulated validation errors.
	Errors() ValidationErrors

	// ClearErrors discards all accumulated validation errors.
	ClearErrors()

	// Render returns the component's markup.
	Render() (string, error)

	// FrontendState serializes the component's public-facing state
	// into the outbound data snapshot.
	FrontendState() (map[string]any, error)

	// Parent returns the enclosing component instance, or nil.
	Parent() Instance
}

// MethodCaller dispatches a named method with positional arguments.
// The second return reports whether the component exposes the method
// at all; a missing method is not an error.
type MethodCaller interface {
	CallMethod(name string, args []any) (value any, found bool, err error)
}

// Factory creates or fetches component instances. When useCache is
// true the factory returns the last cached instance for the id,
// discarding any in-memory state the caller applied to a previous
// instance; when false it always constructs a fresh one.
type Factory interface {
	Create(ctx context.Context, id, name string, useCache bool) (Instance, error)
}
