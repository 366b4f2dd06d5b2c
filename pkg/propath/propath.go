// Package propath implements dot-path property access over a live
// component's object graph. Traversal dispatches on two node
// variants: structured nodes exposing named fields, and string-keyed
// containers. A path that cannot be resolved is absent, not an error.
package propath

import (
	"strings"

	"github.com/pulse-ui/pulse/pkg/component"
)

// Get resolves a dotted path against root. The second return is false
// when any segment is unresolvable at any depth; callers treat that
// as "no current value", never as a fault.
func Get(root any, path string) (any, bool) {
	node := root
	for _, part := range strings.Split(path, ".") {
		next, ok := child(node, part)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Set writes value through a dotted path on the component, mirroring
// the write into shadow at the same path when shadow is non-nil.
//
// The component-level Updating/Updated hooks run around every write
// with the full dotted path. At the terminal segment, a write landing
// on the component itself goes through its SetProperty capability so
// field-level hooks and coercion run; a write landing on a nested
// structured node runs the hook pair registered for the full path on
// the root component instead. A path whose intermediate segment does
// not resolve is silently a no-op.
func Set(comp component.Instance, path string, value any, shadow map[string]any) {
	comp.Updating(path, value)
	defer comp.Updated(path, value)

	parts := strings.Split(path, ".")
	node := any(comp)
	for _, part := range parts[:len(parts)-1] {
		next, ok := child(node, part)
		if !ok {
			return
		}
		node = next
	}

	if !setTerminal(comp, node, path, parts[len(parts)-1], value) {
		return
	}
	if shadow != nil {
		writeShadow(shadow, parts, value)
	}
}

// setTerminal performs the final write. Returns false when the
// terminal segment does not resolve on the owning node.
func setTerminal(comp component.Instance, owner any, fullPath, name string, value any) bool {
	switch n := owner.(type) {
	case component.StructuredNode:
		if _, exists := n.Field(name); !exists {
			return false
		}
		if ps, ok := owner.(component.PropertySetter); ok {
			ps.SetProperty(name, value)
			return true
		}
		pair := rootPair(comp, fullPath)
		if pair.Updating != nil {
			pair.Updating(value)
		}
		n.SetField(name, value)
		if pair.Updated != nil {
			pair.Updated(value)
		}
		return true
	case component.KeyedContainer:
		n.SetValue(name, value)
		return true
	case map[string]any:
		n[name] = value
		return true
	}
	return false
}

// rootPair looks up the hook pair registered on the root component
// for a full dotted path.
func rootPair(comp component.Instance, path string) component.HookPair {
	if h, ok := comp.(component.PathHooked); ok {
		return h.PathHooks().Pair(path)
	}
	return component.HookPair{}
}

// child resolves one path segment: attribute lookup on structured
// nodes, key lookup on containers.
func child(node any, name string) (any, bool) {
	switch n := node.(type) {
	case component.StructuredNode:
		return n.Field(name)
	case component.KeyedContainer:
		return n.Value(name)
	case map[string]any:
		v, ok := n[name]
		return v, ok
	}
	return nil, false
}

// writeShadow mirrors a path write into the shadow data map, creating
// intermediate containers as needed.
func writeShadow(shadow map[string]any, parts []string, value any) {
	m := shadow
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// ApplyInitial hydrates a component from an inbound data snapshot.
// A key whose component field is itself a structured node fans its
// nested map into that node's own fields, to unbounded depth; other
// keys set directly through the component's SetProperty capability
// when present. Keys with no corresponding field are ignored.
func ApplyInitial(inst component.Instance, data map[string]any) {
	for name, value := range data {
		applyTo(inst, name, value)
	}
}

func applyTo(node any, name string, value any) {
	sn, ok := node.(component.StructuredNode)
	if !ok {
		return
	}
	field, exists := sn.Field(name)
	if !exists {
		return
	}

	if nested, ok := field.(component.StructuredNode); ok {
		if dict, ok := value.(map[string]any); ok {
			for k, v := range dict {
				applyTo(nested, k, v)
			}
			return
		}
	}

	if ps, ok := node.(component.PropertySetter); ok {
		ps.SetProperty(name, value)
		return
	}
	sn.SetField(name, value)
}
