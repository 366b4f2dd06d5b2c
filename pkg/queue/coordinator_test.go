package queue

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/pulse-ui/pulse/pkg/action"
	"github.com/pulse-ui/pulse/pkg/component"
	"github.com/pulse-ui/pulse/pkg/dispatch"
	"github.com/pulse-ui/pulse/pkg/store"
)

type tally struct {
	component.Base

	Count int `json:"count"`
}

func (t *tally) Bump() int {
	t.Count++
	return t.Count
}

func (t *tally) Tag(s string) string { return s }

func newCoordinator(t *testing.T, opts ...Option) (*Coordinator, *store.MemoryStore) {
	t.Helper()

	reg := component.NewRegistry()
	reg.Register("tally", func(id string) component.Instance {
		c := &tally{}
		c.Bind(c, id, "tally")
		return c
	})

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	return New(st, dispatch.New(reg), opts...), st
}

func tallyRequest(epoch int64, exprs ...string) *dispatch.Request {
	queue := make([]action.Action, 0, len(exprs))
	for _, expr := range exprs {
		queue = append(queue, action.Action{
			Type: action.TypeCallMethod,
			Call: &action.MethodCall{Expression: expr},
		})
	}
	return &dispatch.Request{
		ComponentName: "tally",
		ID:            "i-1",
		Data:          map[string]any{"count": float64(0)},
		Queue:         queue,
		Epoch:         epoch,
	}
}

// seed plants an encoded request in the pending queue, as if an
// in-flight drain had not picked it up yet.
func seed(t *testing.T, st *store.MemoryStore, req *dispatch.Request) {
	t.Helper()
	item, err := encodeRequest(req)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Append(context.Background(), req.Key(), item, time.Minute); err != nil {
		t.Fatal(err)
	}
}

func TestSubmitProcessesSoleOccupant(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	req := tallyRequest(1, "bump")
	res, err := c.Submit(ctx, req)
	if err != nil {
		t.Fatal(err)
	}

	if res.Ack != nil {
		t.Fatalf("ack = %+v, want envelope", res.Ack)
	}
	if res.Envelope == nil {
		t.Fatal("no envelope")
	}
	if res.Envelope.Data["count"] != float64(1) {
		t.Errorf("data.count = %v", res.Envelope.Data["count"])
	}
	ret := res.Envelope.Return.(map[string]any)
	if ret["method"] != "bump" || ret["value"] != 1 {
		t.Errorf("return = %v", ret)
	}

	// The drain consumed the queue.
	items, _ := st.GetList(ctx, req.Key())
	if items != nil {
		t.Errorf("queue not drained: %v", items)
	}
}

func TestSubmitQueuedBehindDrain(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	seed(t, st, tallyRequest(1, "bump"))

	res, err := c.Submit(ctx, tallyRequest(2, "bump"))
	if err != nil {
		t.Fatal(err)
	}

	if res.Envelope != nil {
		t.Fatalf("envelope = %+v, want ack", res.Envelope)
	}
	want := Ack{Queued: true, Epoch: 2, OriginalEpoch: 1}
	if res.Ack == nil || *res.Ack != want {
		t.Errorf("ack = %+v, want %+v", res.Ack, want)
	}

	items, _ := st.GetList(ctx, "tally:i-1")
	if len(items) != 2 {
		t.Errorf("queue depth = %d, want 2", len(items))
	}
}

func TestDrainProcessesByEpoch(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	// Arrival order 2 then 1; epoch order must win.
	seed(t, st, tallyRequest(2, "tag('late')"))
	seed(t, st, tallyRequest(1, "tag('early')"))

	env, err := c.drain(ctx, "tally:i-1")
	if err != nil {
		t.Fatal(err)
	}

	pair, ok := env.Return.([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("return = %#v, want nested pair", env.Return)
	}
	first := pair[0].(map[string]any)
	second := pair[1].(map[string]any)
	if first["value"] != "early" || second["value"] != "late" {
		t.Errorf("returns = %v, %v", first, second)
	}

	items, _ := st.GetList(ctx, "tally:i-1")
	if items != nil {
		t.Errorf("queue not drained: %v", items)
	}
}

func TestDrainFoldsPendingRequests(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	seed(t, st, tallyRequest(1, "bump"))
	seed(t, st, tallyRequest(2, "bump"))
	seed(t, st, tallyRequest(3, "bump"))

	env, err := c.drain(ctx, "tally:i-1")
	if err != nil {
		t.Fatal(err)
	}

	// Epochs 2 and 3 fold into one merged pass, so the drain runs two
	// passes total and the merged pass carries both bump actions.
	pair, ok := env.Return.([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("return = %#v, want one nesting level", env.Return)
	}
	merged := pair[1].(map[string]any)
	if merged["value"] != 2 {
		t.Errorf("merged return = %v, want both actions applied", merged)
	}
	if env.Data["count"] != float64(2) {
		t.Errorf("data.count = %v", env.Data["count"])
	}
}

func TestDrainSingleRequestReturnUnwrapped(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	seed(t, st, tallyRequest(1, "tag('only')"))

	env, err := c.drain(ctx, "tally:i-1")
	if err != nil {
		t.Fatal(err)
	}
	ret, ok := env.Return.(map[string]any)
	if !ok || ret["value"] != "only" {
		t.Errorf("return = %#v", env.Return)
	}
}

func TestDrainEmptyReturnPlaceholder(t *testing.T) {
	c, st := newCoordinator(t)
	ctx := context.Background()

	// First pass has no call action, so its slot in the nested pair is
	// an empty object rather than nil.
	seed(t, st, tallyRequest(1))
	seed(t, st, tallyRequest(2, "tag('x')"))

	env, err := c.drain(ctx, "tally:i-1")
	if err != nil {
		t.Fatal(err)
	}
	pair := env.Return.([]any)
	if !reflect.DeepEqual(pair[0], map[string]any{}) {
		t.Errorf("first return = %#v, want empty object", pair[0])
	}
}

func TestSubmitUnknownComponent(t *testing.T) {
	c, _ := newCoordinator(t)

	req := tallyRequest(1, "bump")
	req.ComponentName = "ghost"
	if _, err := c.Submit(context.Background(), req); err == nil {
		t.Fatal("want error")
	}
}

func TestNestReturns(t *testing.T) {
	got := nestReturns([]any{"a", "b", "c"})
	want := []any{"a", []any{"b", "c"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}
