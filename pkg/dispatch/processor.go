// Package dispatch applies one component request's queued actions to
// a live component instance through a uniform pipeline: hydrate the
// instance from the inbound snapshot, apply each action in order,
// re-derive and validate the outbound snapshot, render, and assemble
// the result envelope.
package dispatch

import (
	"context"
	"log/slog"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulse-ui/pulse/pkg/action"
	"github.com/pulse-ui/pulse/pkg/component"
	"github.com/pulse-ui/pulse/pkg/markup"
	"github.com/pulse-ui/pulse/pkg/propath"
	"github.com/pulse-ui/pulse/pkg/record"
)

// DefaultChecksumAttribute is the marker attribute scanned for in a
// parent's rendered markup.
const DefaultChecksumAttribute = "pulse-checksum"

// Processor runs the action pipeline for single requests. It is
// stateless between requests; all per-instance state lives in the
// component factory's cache.
type Processor struct {
	factory       component.Factory
	logger        *slog.Logger
	tracer        trace.Tracer
	strictMethods bool
	checksumAttr  string
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. Default: slog.Default with a component
// attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithStrictMethods makes a method-call action naming a method the
// component does not expose a user-facing error instead of a silent
// no-op.
func WithStrictMethods(strict bool) Option {
	return func(p *Processor) {
		p.strictMethods = strict
	}
}

// WithChecksumAttribute sets the parent markup marker attribute.
// Default: DefaultChecksumAttribute.
func WithChecksumAttribute(attr string) Option {
	return func(p *Processor) {
		p.checksumAttr = attr
	}
}

// New creates a Processor over the given component factory.
func New(factory component.Factory, opts ...Option) *Processor {
	p := &Processor{
		factory:      factory,
		logger:       slog.Default().With("component", "dispatch"),
		tracer:       otel.Tracer("pulse"),
		checksumAttr: DefaultChecksumAttribute,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// requestState tracks the flags one pass accumulates while applying
// the action queue.
type requestState struct {
	comp        component.Instance
	ret         *Return
	resetCalled bool
	validateAll bool
}

// Process runs the full pipeline for one request and returns its
// envelope. UserFacingError results are meant for the boundary; any
// other error is a collaborator failure and propagates.
func (p *Processor) Process(ctx context.Context, req *Request) (*Envelope, error) {
	if req.ComponentName == "" {
		return nil, UserErrorf("Missing component name in url")
	}

	ctx, span := p.tracer.Start(ctx, "pulse.dispatch", trace.WithAttributes(
		attribute.String("pulse.component", req.ComponentName),
		attribute.String("pulse.instance", req.ID),
		attribute.Int("pulse.actions", len(req.Queue)),
	))
	defer span.End()

	env, err := p.process(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return env, nil
}

func (p *Processor) process(ctx context.Context, req *Request) (*Envelope, error) {
	// Hydrating
	comp, err := p.factory.Create(ctx, req.ID, req.ComponentName, false)
	if err != nil {
		return nil, err
	}

	originalData := make(map[string]any, len(req.Data))
	for k, v := range req.Data {
		originalData[k] = v
	}

	propath.ApplyInitial(comp, req.Data)
	comp.Hydrate()

	// Applying
	st := &requestState{comp: comp}
	for _, act := range req.Queue {
		if err := p.apply(ctx, req, st, act); err != nil {
			return nil, err
		}
	}
	comp = st.comp

	// PostProcessing
	state, err := comp.FrontendState()
	if err != nil {
		return nil, err
	}
	req.Data = state

	if !st.resetCalled {
		if st.validateAll {
			comp.Validate()
		} else if changed := changedFields(originalData, state); len(changed) > 0 {
			comp.Validate(changed...)
		}
	}

	// Rendering
	dom, err := comp.Render()
	if err != nil {
		return nil, err
	}

	if committer, ok := p.factory.(component.Committer); ok {
		if err := committer.Commit(comp); err != nil {
			p.logger.Warn("commit component state",
				"component", req.ComponentName, "id", req.ID, "error", err)
		}
	}

	// Done
	env := &Envelope{
		ID:     req.ID,
		DOM:    dom,
		Data:   req.Data,
		Errors: comp.Errors(),
	}
	if st.ret != nil {
		env.Return = st.ret.Data()
		env.Redirect = st.ret.redirect
		env.Poll = st.ret.poll
	}

	if parent := comp.Parent(); parent != nil {
		penv, err := p.parentEnvelope(parent)
		if err != nil {
			return nil, err
		}
		env.Parent = penv
	}
	return env, nil
}

// apply dispatches one action against the current component.
func (p *Processor) apply(ctx context.Context, req *Request, st *requestState, act action.Action) error {
	switch {
	case act.Sync != nil:
		if act.Sync.Path == "" {
			return UserErrorf("Property name is required")
		}
		if act.Sync.Value == nil {
			return UserErrorf("Property value is required")
		}
		p.logger.Debug("sync input", "path", act.Sync.Path)
		propath.Set(st.comp, act.Sync.Path, act.Sync.Value, req.Data)
		return nil
	case act.Record != nil:
		return p.applyRecord(ctx, st.comp, act.Record)
	case act.Call != nil:
		return p.applyCall(ctx, req, st, act.Call)
	}
	return UserErrorf("Unknown action_type '%s'", act.Type)
}

// applyRecord resolves the target record store and creates or updates
// the addressed row.
func (p *Processor) applyRecord(ctx context.Context, comp component.Instance, rm *action.RecordMutation) error {
	store, defaults, err := resolveRecordTarget(comp, rm)
	if err != nil {
		return err
	}
	if len(rm.Fields) == 0 {
		return nil
	}

	fields := make(map[string]any, len(defaults)+len(rm.Fields))
	for k, v := range defaults {
		fields[k] = v
	}
	for k, v := range rm.Fields {
		fields[k] = v
	}

	if rm.Key != nil {
		p.logger.Debug("update record", "key", rm.Key)
		return store.Update(ctx, rm.Key, fields)
	}

	key, err := store.Create(ctx, fields)
	if err != nil {
		return err
	}
	rm.Key = key
	p.logger.Debug("create record", "key", key)
	return nil
}

// resolveRecordTarget finds the record store for a mutation: a named
// component field backed by a record store first, then the
// component's model registry by name.
func resolveRecordTarget(comp component.Instance, rm *action.RecordMutation) (record.Store, map[string]any, error) {
	if rm.ModelField != "" {
		if sn, ok := comp.(component.StructuredNode); ok {
			if field, ok := sn.Field(rm.ModelField); ok {
				if mb, ok := field.(component.ModelBacked); ok {
					store := mb.RecordStore()
					if store != nil {
						return store, registryDefaults(comp, store), nil
					}
				}
			}
		}
	}

	if rm.Name != "" {
		reg, ok := comp.(component.ModelRegistry)
		if !ok {
			return nil, nil, UserErrorf("Missing model registry in component")
		}
		for _, entry := range reg.Models() {
			if entry.Name == rm.Name {
				if entry.Store == nil {
					return nil, nil, UserErrorf("Model '%s' has no record store", rm.Name)
				}
				return entry.Store, entry.Defaults, nil
			}
		}
	}

	return nil, nil, UserErrorf("Missing record store for field '%s' and model '%s'", rm.ModelField, rm.Name)
}

// registryDefaults finds declared defaults for a store resolved
// through a component field.
func registryDefaults(comp component.Instance, store record.Store) map[string]any {
	reg, ok := comp.(component.ModelRegistry)
	if !ok {
		return nil
	}
	for _, entry := range reg.Models() {
		if entry.Store == store {
			return entry.Defaults
		}
	}
	return nil
}

// applyCall handles one method-call action, including the assignment
// shorthand and the $-prefixed specials.
func (p *Processor) applyCall(ctx context.Context, req *Request, st *requestState, call *action.MethodCall) error {
	if call.Expression == "" {
		return UserErrorf("Missing 'name' key for callMethod")
	}

	if path, value, ok := action.ParseAssignment(call.Expression); ok {
		propath.Set(st.comp, path, value, nil)
		st.ret = newReturn(path, []any{value})
		return nil
	}

	expr, err := action.ParseCallExpr(call.Expression)
	if err != nil {
		return &UserFacingError{Message: err.Error()}
	}
	st.ret = newReturn(expr.Name, expr.Args)

	switch expr.Name {
	case "$refresh":
		comp, err := p.factory.Create(ctx, req.ID, req.ComponentName, true)
		if err != nil {
			return err
		}
		st.comp = comp
	case "$reset":
		comp, err := p.factory.Create(ctx, req.ID, req.ComponentName, false)
		if err != nil {
			return err
		}
		comp.ClearErrors()
		st.comp = comp
		st.resetCalled = true
	case "$toggle":
		for _, arg := range expr.Args {
			path, ok := arg.(string)
			if !ok {
				continue
			}
			current, _ := propath.Get(st.comp, path)
			propath.Set(st.comp, path, !truthy(current), nil)
		}
	case "$validate":
		st.validateAll = true
	default:
		st.comp.Calling(expr.Name, expr.Args)
		value, found, err := callMethod(st.comp, expr.Name, expr.Args)
		if err != nil {
			return err
		}
		if !found {
			if p.strictMethods {
				return UserErrorf("Unknown method '%s'", expr.Name)
			}
			p.logger.Debug("skipping unknown method", "method", expr.Name)
		} else {
			st.ret.SetValue(value)
		}
		st.comp.Called(expr.Name, expr.Args)
	}
	return nil
}

func callMethod(comp component.Instance, name string, args []any) (any, bool, error) {
	mc, ok := comp.(component.MethodCaller)
	if !ok {
		return nil, false, nil
	}
	return mc.CallMethod(name, args)
}

// parentEnvelope renders a parent component and extracts its checksum
// marker.
func (p *Processor) parentEnvelope(parent component.Instance) (*ParentEnvelope, error) {
	dom, err := parent.Render()
	if err != nil {
		return nil, err
	}
	data, err := parent.FrontendState()
	if err != nil {
		return nil, err
	}

	checksum, _ := markup.FindFirstAttribute(dom, p.checksumAttr)
	return &ParentEnvelope{
		ID:       parent.ID(),
		DOM:      dom,
		Checksum: checksum,
		Data:     data,
		Errors:   parent.Errors(),
	}, nil
}

// changedFields lists the inbound snapshot's top-level keys whose
// value differs in the freshly derived snapshot.
func changedFields(original, current map[string]any) []string {
	var changed []string
	for key, value := range original {
		if !reflect.DeepEqual(value, current[key]) {
			changed = append(changed, key)
		}
	}
	return changed
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
