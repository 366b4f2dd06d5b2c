package component

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Base is the embeddable default Instance implementation. It carries
// identity, validation errors, the per-path hook table, and
// reflection-backed field access and method dispatch over the
// embedding struct. Lifecycle hooks default to no-ops; components
// override the ones they care about.
type Base struct {
	FieldSet

	id     string
	name   string
	parent Instance
	errors ValidationErrors
	hooks  *Hooks
}

// Bind binds the reflection target and the instance identity. Call it
// from the component constructor with a pointer to the embedding
// struct.
func (b *Base) Bind(self any, id, name string) {
	b.BindFields(self)
	b.id = id
	b.name = name
}

// ID returns the stable instance identity.
func (b *Base) ID() string { return b.id }

// Name returns the registered component name.
func (b *Base) Name() string { return b.name }

// Parent returns the enclosing component instance, or nil.
func (b *Base) Parent() Instance { return b.parent }

// SetParent sets the enclosing component instance.
func (b *Base) SetParent(p Instance) { b.parent = p }

// Hydrate runs after initial hydration. Default: no-op.
func (b *Base) Hydrate() {}

// Updating runs before every property write. Default: no-op.
func (b *Base) Updating(path string, value any) {}

// Updated runs after every property write. Default: no-op.
func (b *Base) Updated(path string, value any) {}

// Calling runs before every method invocation. Default: no-op.
func (b *Base) Calling(name string, args []any) {}

// Called runs after every method invocation. Default: no-op.
func (b *Base) Called(name string, args []any) {}

// Validate validates fields. Default: no-op; components with
// validation rules override this and record failures via AddError.
func (b *Base) Validate(fields ...string) {}

// Errors returns the accumulated validation errors, never nil.
func (b *Base) Errors() ValidationErrors {
	if b.errors == nil {
		b.errors = make(ValidationErrors)
	}
	return b.errors
}

// AddError records one validation message for a field.
func (b *Base) AddError(field, message string) {
	if b.errors == nil {
		b.errors = make(ValidationErrors)
	}
	b.errors[field] = append(b.errors[field], message)
}

// ClearErrors discards all accumulated validation errors.
func (b *Base) ClearErrors() {
	b.errors = make(ValidationErrors)
}

// PathHooks returns the per-path hook table, creating it on first
// use. Components register pairs from their constructor.
func (b *Base) PathHooks() *Hooks {
	if b.hooks == nil {
		b.hooks = NewHooks()
	}
	return b.hooks
}

// SetProperty writes a top-level property with the field-level hook
// pair registered for it. A write to an unknown field is a no-op.
func (b *Base) SetProperty(name string, value any) {
	pair := b.hooks.Pair(name)
	if pair.Updating != nil {
		pair.Updating(value)
	}
	b.SetField(name, value)
	if pair.Updated != nil {
		pair.Updated(value)
	}
}

// Render returns the component's markup. Default: empty markup;
// renderable components override this.
func (b *Base) Render() (string, error) { return "", nil }

// FrontendState serializes the embedding struct's exported state into
// the outbound data snapshot via a JSON round trip, so the snapshot
// keys follow the same json tags the wire uses.
func (b *Base) FrontendState() (map[string]any, error) {
	if !b.self.IsValid() {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(b.self.Interface())
	if err != nil {
		return nil, fmt.Errorf("component: serialize %s state: %w", b.name, err)
	}
	state := make(map[string]any)
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("component: serialize %s state: %w", b.name, err)
	}
	return state, nil
}

// CallMethod dispatches a named method with positional arguments. The
// lower-camel wire name maps onto the exported Go method. Missing
// methods report found=false and are not an error.
func (b *Base) CallMethod(name string, args []any) (any, bool, error) {
	if !b.self.IsValid() || name == "" {
		return nil, false, nil
	}

	m := b.self.MethodByName(upperFirst(name))
	if !m.IsValid() {
		m = b.self.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, false, nil
	}

	in, err := buildArgs(m.Type(), args)
	if err != nil {
		return nil, true, fmt.Errorf("component: call %s.%s: %w", b.name, name, err)
	}

	out := m.Call(in)
	return splitReturns(out)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// buildArgs converts wire-decoded arguments to the method's parameter
// types, packing the tail into the variadic parameter when present.
func buildArgs(mt reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := mt.NumIn()
	if mt.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("want at least %d args, got %d", fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("want %d args, got %d", fixed, len(args))
	}

	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if i < fixed {
			pt = mt.In(i)
		} else {
			pt = mt.In(fixed).Elem()
		}
		pv := reflect.New(pt).Elem()
		if !assignValue(pv, arg) {
			return nil, fmt.Errorf("arg %d: cannot convert %T to %s", i, arg, pt)
		}
		in = append(in, pv)
	}
	return in, nil
}

// splitReturns separates a trailing error return from the value
// return, if either is present.
func splitReturns(out []reflect.Value) (any, bool, error) {
	if len(out) == 0 {
		return nil, true, nil
	}
	last := out[len(out)-1]
	if last.Type() == reflect.TypeOf((*error)(nil)).Elem() {
		if !last.IsNil() {
			return nil, true, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, true, nil
	}
	return out[0].Interface(), true, nil
}
