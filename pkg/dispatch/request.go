package dispatch

import "github.com/pulse-ui/pulse/pkg/action"

// Request is one client-submitted batch targeting a live component
// instance. It is immutable once constructed; the coordinator clones
// and extends the action queue when it folds queued requests together.
type Request struct {
	// ComponentName is the registered component type name.
	ComponentName string `msgpack:"component"`

	// ID is the stable identity of the live instance across requests.
	ID string `msgpack:"id"`

	// Data is the property snapshot the client believes is current,
	// possibly nested. During processing it becomes the shadow the
	// outbound snapshot is kept in sync with.
	Data map[string]any `msgpack:"data"`

	// Queue is the ordered action list.
	Queue []action.Action `msgpack:"queue"`

	// Epoch is the client-assigned monotonically increasing sequence
	// number. It orders queued requests for the same instance; it is
	// not unique.
	Epoch int64 `msgpack:"epoch"`
}

// Key is the pending-queue key for this request's instance.
func (r *Request) Key() string {
	return r.ComponentName + ":" + r.ID
}

// CloneShallow copies the request with an independently extendable
// action queue.
func (r *Request) CloneShallow() *Request {
	out := *r
	out.Queue = append([]action.Action(nil), r.Queue...)
	return &out
}
