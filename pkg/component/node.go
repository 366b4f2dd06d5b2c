package component

// StructuredNode exposes named fields for path traversal.
// Components and nested field objects implement it so the property
// path engine can walk the object graph without runtime reflection
// at the call site.
type StructuredNode interface {
	// Field returns the named field's current value.
	// The second return is false when no such field exists.
	Field(name string) (any, bool)

	// SetField writes the named field. Returns false when no such
	// field exists or the value cannot be converted.
	SetField(name string, value any) bool
}

// PropertySetter is the structured "set property" capability of a
// component. Unlike a raw SetField, SetProperty runs the field-level
// hook pair registered for the property and performs type coercion.
// The path engine delegates terminal writes to it when the owning
// node is the component itself.
type PropertySetter interface {
	SetProperty(name string, value any)
}

// KeyedContainer is a string-keyed container node. Plain
// map[string]any values in the object graph satisfy the same role and
// are handled directly by the path engine; this interface exists for
// custom container types.
type KeyedContainer interface {
	Value(key string) (any, bool)
	SetValue(key string, value any)
}
