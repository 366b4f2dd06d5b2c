package component

import "github.com/pulse-ui/pulse/pkg/record"

// ModelEntry declares a persisted record type a component can mutate,
// addressed by name. Defaults are merged under the fields supplied by
// a record mutation action.
type ModelEntry struct {
	Name     string
	Store    record.Store
	Defaults map[string]any
}

// ModelRegistry is implemented by components that declare mutable
// record types by name.
type ModelRegistry interface {
	Models() []ModelEntry
}

// ModelBacked is implemented by component fields that are backed by a
// persisted record type. A record mutation action naming such a field
// resolves its store directly.
type ModelBacked interface {
	RecordStore() record.Store
}
