// Package queue coordinates concurrent update requests targeting the
// same live component instance. Requests enqueue into a shared
// expiring store keyed by (componentName, instanceId); the first
// request to observe itself as sole occupant takes the admission slot
// and drains the queue, folding requests that accumulate meanwhile
// into merged passes.
package queue

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulse-ui/pulse/pkg/dispatch"
	"github.com/pulse-ui/pulse/pkg/metrics"
	"github.com/pulse-ui/pulse/pkg/store"
)

// DefaultTTL is how long an abandoned pending queue survives in the
// shared store.
const DefaultTTL = 60 * time.Second

// Ack acknowledges a request that was queued behind an in-flight
// drain instead of being processed.
type Ack struct {
	Queued        bool  `json:"queued"`
	Epoch         int64 `json:"epoch"`
	OriginalEpoch int64 `json:"original_epoch"`
}

// Result is the outcome of one submission: either a queued ack or the
// envelope of the drain the submission admitted.
type Result struct {
	Ack      *Ack
	Envelope *dispatch.Envelope
}

// Coordinator serializes request processing per instance key.
type Coordinator struct {
	store   store.Store
	proc    *dispatch.Processor
	ttl     time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTTL overrides the pending queue TTL. Default: DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics attaches coordinator metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New creates a Coordinator over a shared store and a processor.
func New(st store.Store, proc *dispatch.Processor, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  st,
		proc:   proc,
		ttl:    DefaultTTL,
		logger: slog.Default().With("component", "queue"),
		tracer: otel.Tracer("pulse"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit appends the request to its instance's pending queue. The
// sole occupant proceeds to drain synchronously and gets the
// envelope; everyone else gets a queued ack carrying their epoch and
// the first-in-queue epoch.
func (c *Coordinator) Submit(ctx context.Context, req *dispatch.Request) (*Result, error) {
	key := req.Key()

	item, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	n, err := c.store.Append(ctx, key, item, c.ttl)
	if err != nil {
		return nil, err
	}
	c.metrics.ObserveQueueDepth(n)

	if n > 1 {
		c.logger.Debug("request queued", "key", key, "epoch", req.Epoch, "depth", n)
		c.metrics.ObserveRequest(metrics.OutcomeQueued)
		return &Result{Ack: &Ack{
			Queued:        true,
			Epoch:         req.Epoch,
			OriginalEpoch: c.originalEpoch(ctx, key, req.Epoch),
		}}, nil
	}

	env, err := c.drain(ctx, key)
	if err != nil {
		c.metrics.ObserveRequest(metrics.OutcomeError)
		return nil, err
	}
	c.metrics.ObserveRequest(metrics.OutcomeProcessed)
	return &Result{Envelope: env}, nil
}

// originalEpoch reads the epoch of the queue's first entry, falling
// back to the submitted epoch when the queue cannot be read.
func (c *Coordinator) originalEpoch(ctx context.Context, key string, fallback int64) int64 {
	items, err := c.store.GetList(ctx, key)
	if err != nil || len(items) == 0 {
		return fallback
	}
	first, err := decodeRequest(items[0])
	if err != nil {
		return fallback
	}
	return first.Epoch
}

// drain owns the admission slot for key: it processes the pending
// queue strictly by epoch, then folds whatever arrived during the
// pass into one merged request and loops. The loop form keeps the
// admission gate in one place instead of re-entering Submit.
func (c *Coordinator) drain(ctx context.Context, key string) (*dispatch.Envelope, error) {
	ctx, span := c.tracer.Start(ctx, "pulse.drain",
		trace.WithAttributes(attribute.String("pulse.key", key)))
	defer span.End()

	start := time.Now()
	defer func() {
		c.metrics.ObserveDrain(time.Since(start))
	}()

	var (
		result  *dispatch.Envelope
		returns []any
	)
	for {
		items, err := c.store.GetList(ctx, key)
		if err != nil {
			return nil, err
		}
		reqs, err := decodeRequests(items)
		if err != nil {
			return nil, err
		}
		if len(reqs) == 0 {
			break
		}

		// Processed order is by epoch; arrival order breaks ties.
		sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].Epoch < reqs[j].Epoch })
		first := reqs[0]

		env, err := c.proc.Process(ctx, first)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		result = env
		returns = append(returns, orEmptyReturn(env.Return))

		remaining, err := c.popProcessed(ctx, key, first.Epoch)
		if err != nil {
			return nil, err
		}
		if len(remaining) == 0 {
			break
		}

		merged, err := c.fold(ctx, key, remaining)
		if err != nil {
			return nil, err
		}
		if merged == nil {
			// Another submission took the admission slot while we
			// folded; its drain picks the merged request up.
			break
		}
	}

	if result != nil && len(returns) > 1 {
		result.Return = nestReturns(returns)
	}
	return result, nil
}

// popProcessed removes the first queue entry carrying the processed
// epoch and persists the rest, returning what remains.
func (c *Coordinator) popProcessed(ctx context.Context, key string, epoch int64) ([][]byte, error) {
	items, err := c.store.GetList(ctx, key)
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		req, err := decodeRequest(item)
		if err != nil {
			return nil, err
		}
		if req.Epoch == epoch {
			items = append(items[:i], items[i+1:]...)
			break
		}
	}
	if err := c.store.SetList(ctx, key, items, c.ttl); err != nil {
		return nil, err
	}
	return items, nil
}

// fold concatenates the remaining entries' action queues onto the
// first remaining entry, drains the stored list, and re-enqueues the
// merged request. A nil return without error means the merged request
// did not become sole occupant and this drain must stop.
func (c *Coordinator) fold(ctx context.Context, key string, items [][]byte) (*dispatch.Request, error) {
	rest, err := decodeRequests(items)
	if err != nil {
		return nil, err
	}

	merged := rest[0].CloneShallow()
	for _, req := range rest[1:] {
		merged.Queue = append(merged.Queue, req.Queue...)
	}
	c.metrics.ObserveMerge(len(rest))
	c.logger.Debug("merged pending requests", "key", key, "count", len(rest),
		"actions", len(merged.Queue))

	if err := c.store.SetList(ctx, key, nil, c.ttl); err != nil {
		return nil, err
	}

	item, err := encodeRequest(merged)
	if err != nil {
		return nil, err
	}
	n, err := c.store.Append(ctx, key, item, c.ttl)
	if err != nil {
		return nil, err
	}
	if n > 1 {
		c.logger.Debug("lost admission slot after merge", "key", key, "depth", n)
		return nil, nil
	}
	return merged, nil
}

// nestReturns folds per-pass return values into right-nested
// [first, merged] pairs.
func nestReturns(returns []any) any {
	result := returns[len(returns)-1]
	for i := len(returns) - 2; i >= 0; i-- {
		result = []any{returns[i], result}
	}
	return result
}

func orEmptyReturn(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
