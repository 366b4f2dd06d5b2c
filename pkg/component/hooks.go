package component

// HookPair is the before/after hook pair for one property path.
type HookPair struct {
	Updating func(value any)
	Updated  func(value any)
}

// Hooks is an explicit registration table mapping a dotted property
// path to its hook pair. It is built once per component type, so a
// write through a path with no registered pair is a cheap map miss
// rather than a method-name lookup.
type Hooks struct {
	pairs map[string]HookPair
}

// NewHooks returns an empty hook table.
func NewHooks() *Hooks {
	return &Hooks{pairs: make(map[string]HookPair)}
}

// On registers the hook pair for a dotted path, replacing any
// previous registration.
func (h *Hooks) On(path string, pair HookPair) *Hooks {
	h.pairs[path] = pair
	return h
}

// Pair returns the registered pair for a path. The zero pair is
// returned when nothing is registered; its funcs are nil.
func (h *Hooks) Pair(path string) HookPair {
	if h == nil {
		return HookPair{}
	}
	return h.pairs[path]
}

// PathHooked is implemented by components that register per-path
// hook pairs.
type PathHooked interface {
	PathHooks() *Hooks
}
